package crm

import "github.com/fivetwenty-io/pipeliner-client/internal/constants"

// Supported team pipeline versions.
const (
	EarliestVersion = constants.EarliestVersion
	LatestVersion   = constants.LatestVersion
)

type versionDelta struct {
	add    map[string]string
	remove []string
}

// versionDeltas lists the entity types each pipeline version adds or removes,
// as entity name to collection name.
var versionDeltas = map[int]versionDelta{
	9: {
		add: map[string]string{
			"Account":                "Accounts",
			"AccountType":            "AccountTypes",
			"Activity":               "Activities",
			"ActivityType":           "ActivityTypes",
			"Appointment":            "Appointments",
			"Client":                 "Clients",
			"Contact":                "Contacts",
			"Currency":               "Currencies",
			"Data":                   "Data",
			"Document":               "Documents",
			"ExchangeRateList":       "ExRateLists",
			"Industry":               "Industries",
			"IntegrationEnvironment": "IntegrationEnvs",
			"Lead":                   "Leads",
			"MasterRight":            "MasterRights",
			"Message":                "Messages",
			"Note":                   "Notes",
			"Opportunity":            "Opportunities",
			"Product":                "Products",
			"ReasonOfClose":          "ReasonOfCloses",
			"Reminder":               "Reminders",
			"SalesUnit":              "SalesUnits",
			"Stage":                  "Stages",
		},
	},
	11: {
		add: map[string]string{
			"Competence": "Competencies",
			"Relevance":  "Relevancies",
		},
	},
	12: {
		add: map[string]string{
			"Email": "Emails",
		},
	},
	14: {
		add: map[string]string{
			"AddressbookRelation":   "AddressbookRelations",
			"OpptyAccountRelation":  "OpptyAccountRelations",
			"OpptyContactRelation":  "OpptyContactRelations",
			"OpptyProductRelation":  "OpptyProductRelations",
			"ProductCategory":       "ProductCategories",
			"ProductPriceList":      "ProductPriceLists",
			"ProductPriceListPrice": "ProductPriceListPrices",
		},
	},
	15: {
		add: map[string]string{
			"OpptyContactRole": "OpptyContactRoles",
			"SalesRole":        "SalesRoles",
		},
		remove: []string{"Competence", "Relevance"},
	},
}

// EntityTypes returns the entity types available in a team pipeline version,
// as entity name to collection name. Versions newer than LatestVersion get the
// LatestVersion table; versions older than EarliestVersion get an empty map.
func EntityTypes(version int) map[string]string {
	types := make(map[string]string)

	for v := EarliestVersion; v <= min(version, LatestVersion); v++ {
		delta, ok := versionDeltas[v]
		if !ok {
			continue
		}

		for entity, collection := range delta.add {
			types[entity] = collection
		}

		for _, entity := range delta.remove {
			delete(types, entity)
		}
	}

	return types
}

// Package crm provides the types, interfaces, and helpers for working with
// the Pipeliner CRM REST API.
//
// # Overview
//
// Entities (Account, Contact, Opportunity, ...) are schema-less records of
// upper-case field names to values. Each entity type has a Repository which
// loads pages of entities as EntityCollections and saves or deletes them.
// A concrete implementation is provided by the pipeliner package:
//
//	client, err := pipeliner.New(ctx, &crm.Config{
//		URL:        "https://eu.pipelinersales.com",
//		PipelineID: "eu_myPipeline",
//		APIToken:   token,
//		Password:   password,
//	})
//	if err != nil { log.Fatal(err) }
//
//	accounts, _ := client.Repository("Account")
//	page, err := accounts.Get(ctx, query.NewCriteria().
//		WithFilterBy(query.StartsWith("ORGANIZATION", "Acme")).
//		WithSortBy(query.Desc("MODIFIED")).
//		WithLimit(10))
//
// # Pages and iteration
//
// An EntityCollection holds a single page together with its position in the
// full result set (see PageRange). It cannot be modified. To walk the whole
// result set, use an EntityCollectionIterator, which loads further pages as
// it goes:
//
//	it := accounts.EntireRangeIterator(page)
//	err = it.ForEach(ctx, func(i int, account *crm.Entity) error {
//		fmt.Println(i, account.StringField("ORGANIZATION"))
//		return nil
//	})
//
// # Errors
//
// Failed requests return *HTTPError, which carries the status and the API
// error code and message. Helpers such as IsNotFound and ErrorCode make it
// easy to branch on them.
package crm

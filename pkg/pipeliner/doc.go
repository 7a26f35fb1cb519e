// Package pipeliner provides the primary entry point for constructing a
// Pipeliner CRM REST client that implements the crm.Client interface.
//
// It builds the retrying HTTP transport, checks the team pipeline version on
// the server and loads the entity types of that version. The returned client
// hands out one crm.Repository per entity type.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/pipeliner-client/pkg/crm"
//	  "github.com/fivetwenty-io/pipeliner-client/pkg/crm/query"
//	  "github.com/fivetwenty-io/pipeliner-client/pkg/pipeliner"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := pipeliner.New(ctx, &crm.Config{
//	    URL:        "https://eu.pipelinersales.com",
//	    PipelineID: "eu_myPipeline",
//	    APIToken:   "api-token",
//	    Password:   "api-password",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  accounts, err := cli.Repository("Account")
//	  if err != nil { log.Fatal(err) }
//
//	  page, err := accounts.Get(ctx, query.NewCriteria().
//	    WithLimit(10).
//	    WithFilterBy(query.Ll("ORGANIZATION", "Acme")).
//	    WithSortBy(query.Asc("ORGANIZATION")))
//	  if err != nil { log.Fatal(err) }
//
//	  it := accounts.EntireRangeIterator(page)
//	  err = it.ForEach(ctx, func(i int, account *crm.Entity) error {
//	    log.Println(i, account.StringField("ORGANIZATION"))
//	    return nil
//	  })
//	}
//
// Entity events
//
// Set crm.Config.Events to publish an event after every successful write.
// The internal events package provides a NATS publisher; any type
// implementing crm.EventPublisher works.
package pipeliner

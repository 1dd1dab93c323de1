// Package logoclient is the entry point for constructing a Logo REST API
// client that implements the logo.Client interface.
//
// It layers configuration, HTTP transport and credentials on top of the
// query compiler, envelope types and pagination cursor defined in the logo
// package.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/logoapi/pkg/logo"
//	  "github.com/fivetwenty-io/logoapi/pkg/logoclient"
//	)
//
//	type Item struct {
//	  Code  string `json:"CODE"`
//	  Title string `json:"TITLE"`
//	}
//
//	var items = logo.Entity{
//	  Name:   "items",
//	  Path:   "/items",
//	  Fields: logo.FieldMap{"code": "CODE", "title": "TITLE"},
//	}
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := logoclient.New(ctx, &logo.Config{
//	    BaseURL:  "erp.example.com/api/v1",
//	    APIKey:   "secret",
//	    Entities: []logo.Entity{items},
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  resource := logoclient.Resource[Item](cli, items)
//
//	  query := logo.NewQueryOptions().
//	    WithFields("CODE", "TITLE").
//	    WithSort(logo.SortBy("CODE")).
//	    WithLimit(50).
//	    Where("code", logo.Like("A%"))
//
//	  for page, err := range resource.Pages(ctx, query).Pages() {
//	    if err != nil { log.Fatal(err) }
//	    _ = page.Items
//	  }
//	}
//
// # Configuration files
//
// NewFromFile reads a YAML or JSON file plus LOGO_* environment variables
// through logo.LoadConfig.
//
// # Errors
//
// Errors are classified by kind. Use errors.Is with the logo sentinels
// (logo.ErrTimeout, logo.ErrRateLimited, logo.ErrMalformedCriteria and so
// on) or logo.KindOf.
package logoclient

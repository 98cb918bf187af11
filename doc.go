// Package mosaic serves many applications from one process, each composed
// from reusable modules and selected by the Host header.
//
// # Modules
//
// A module is a named unit that may contribute services, middlewares,
// routes, context fields, error handlers, websocket events and health
// checks. Modules declare sub-modules, so an application is a tree:
//
//	var Catalog = mosaic.Define(mosaic.Definition{
//	    Name:       "catalog",
//	    SubModules: []string{"requestid"},
//	    RoutesFunc: func(cfg mosaic.ModuleConfig, svc *mosaic.Services) (mosaic.Routes, error) {
//	        return mosaic.Routes{
//	            "/products/[id]": {mosaic.GET(showProduct)},
//	            "/assets/*":     {serveAsset},
//	        }, nil
//	    },
//	})
//
// # Applications
//
// NewApp resolves the module tree of an application and builds its route
// table once. Run maps every application to its hosts and serves them:
//
//	reg, _ := mosaic.NewRegistry(requestid.Module, Catalog)
//
//	shop, err := mosaic.NewApp(ctx, "shop",
//	    mosaic.WithRegistry(reg),
//	    mosaic.WithHosts("shop.example.com", "*.shop.example.com"),
//	    mosaic.WithModules("catalog"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = mosaic.Run(
//	    mosaic.Apps(shop),
//	    mosaic.Address(":8080"),
//	    mosaic.Ops(":9090"),
//	)
//
// Requests for a host no application answers are dropped unless a Fallback
// application is set.
//
// # Actions
//
// Routes, middlewares and events are chains of actions. Each returns a
// result, an error, or neither; the first result or error ends the chain:
//
//	func showProduct(c *mosaic.Context) (any, error) {
//	    id, err := mosaic.Param[int64](c, "id")
//	    if err != nil {
//	        return nil, err
//	    }
//	    p, err := loadProduct(c, id)
//	    if err != nil {
//	        return nil, mosaic.ErrNotFound("product not found", mosaic.WithCause(err))
//	    }
//	    return p, nil
//	}
//
// Strings are written as text, byte slices and readers as bytes, a
// *Response as built, and anything else as JSON.
//
// # Errors
//
// Every error carries a Kind. Modules register handlers per kind; the
// deepest module's handler runs first and the first one producing a
// response wins. Unhandled errors render the "/404" route when one exists,
// or a bare status.
package mosaic

// Package securitycenter provides a native Go client for the Tenable
// SecurityCenter 5.x REST API.
//
// This is by no means a complete model of everything the API can do; it is a
// thin wrapper around session bootstrap, authentication, file upload and the
// generic paginated analysis endpoint.
//
// # Quick Start
//
//	sc, err := securitycenter.NewClient(ctx, "sc.example.com",
//	    securitycenter.WithInsecureTLS(),
//	    securitycenter.WithRetries(3),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := sc.Login(ctx, "admin", "password"); err != nil {
//	    log.Fatal(err)
//	}
//	defer sc.Logout(context.Background())
//
//	// IP summary of every host in the 10.10.0.0/16 network
//	hosts, err := sc.Analysis.Query(ctx, "sumip", []securitycenter.Filter{
//	    securitycenter.F("ip", "=", "10.10.0.0/16"),
//	})
//
// # Error Handling
//
// Construction distinguishes an unreachable target from a reachable one that
// is not SecurityCenter:
//
//	_, err := securitycenter.NewClient(ctx, host)
//	var notFound *securitycenter.ServerNotFoundError
//	var invalid *securitycenter.InvalidServerError
//	switch {
//	case errors.As(err, &notFound):
//	    // nothing listening at host
//	case errors.As(err, &invalid):
//	    // host answered, but not with a SecurityCenter status response
//	}
//
// Application-level errors from well-formed responses surface as *APIError
// with the platform's error_code and error_msg, on every call the client
// makes. Transport and JSON failures propagate unchanged.
//
// # Pagination
//
// Query accumulates across pages eagerly; Stream fetches pages lazily:
//
//	for record, err := range sc.Analysis.Stream(ctx, "vulndetails", filters) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(record["pluginID"])
//	}
//
// Both loops trust the server's totalRecords and endOffset fields for
// termination and apply no iteration cap of their own.
//
// A Client mutates one shared HTTP session through Login and Logout and is
// not safe for concurrent use without external synchronization.
package securitycenter

// Package spacache serves a fixed tree of static assets, typically the build
// output of a single-page application, from memory.
//
// [Load] walks an asset directory once, precompresses text-like files
// (HTML, CSS, JavaScript, JSON and SVG) at the highest ratio the chosen
// [Encoding] offers, and freezes the result into a [Cache]. The cache is
// never modified afterwards and can be shared by any number of goroutines
// without locking.
//
// # Lookups
//
// [Cache.Get] resolves a request path in a fixed order:
//   - an exact match among precompressed assets
//   - an exact match among assets stored as-is
//   - the precompressed [FallbackKey] ("/index.html"), so client-side routes
//     render the application shell
//
// When none of these match the lookup reports not-found.
//
// # Quick Start
//
//	cache, report, err := spacache.Load(ctx, "./dist",
//	    spacache.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//	report.Log(logger)
//	http.Handle("/", spahttp.NewHandler(cache))
//
// # Failures
//
// A file that cannot be read is left out; a file that cannot be compressed
// is kept uncompressed. Both are reported as [Warning] values in the
// [Report]. The load fails only when the root directory cannot be read,
// the tree holds more files than allowed, or the context is canceled.
package spacache

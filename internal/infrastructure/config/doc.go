// Package config handles loading and validating Gray Logic Diagnostics configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// The detector thresholds (automation-trigger bands, rapid-change window,
// connectivity gap ceiling) are empirical values carried over from field
// observations. They are deliberately exposed as tunables rather than
// constants so installations can adjust them without a rebuild.
//
// Performance Characteristics:
//   - Configuration is loaded once at startup
//   - No runtime overhead after initial load
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Diagnosis.SimilarK)
package config

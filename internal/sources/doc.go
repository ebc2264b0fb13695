// Package sources loads and resolves the list of export documents fed to
// the state extractor. A sources file lists the saved export pages with an
// optional landing flag, enabling repeatable runs without positional args.
//
// # Sources Format
//
// Sources files can be written in YAML, JSON or TOML format:
//
//	sources:
//	  - path: exports/landing/index.html
//	    landing: true
//	  - path: exports/information/index.html
//	fallback_url: https://xuechuntao.com/information-1
//
// A source without an explicit landing flag is treated as the landing
// document when its path contains "landing".
//
// # Usage
//
//	loader := sources.NewLoader()
//	cfg, err := loader.Load("sources.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Error Handling
//
// The package defines sentinel errors for common failure cases:
//   - ErrNoSources: the file lists no sources
//   - ErrEmptyPath: a source is missing its path
//   - ErrInvalidFormat: file is not valid YAML/JSON/TOML
//   - ErrFileNotFound: the sources file does not exist
//   - ErrUnsupportedExt: unsupported file extension
package sources

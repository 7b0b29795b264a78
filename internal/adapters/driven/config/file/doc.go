// Package file keeps intellidocs configuration under ~/.intellidocs.
//
//   - ConfigStore: config.toml with INTELLIDOCS_* environment overrides
//   - PromptStore: prompt templates, seeded from the embedded defaults/ directory
//   - LoadDotEnv: optional .env file read before the store is opened
package file

// Package internal contains the core implementation packages for docsentry.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the docsentry CLI tool.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - config: Configuration management with validation and security
//   - errors: Typed document errors, severities, and collection
//   - frontmatter: YAML front-matter splitting, decoding, and encoding
//   - linkcheck: External link fetching with caching and retries
//   - lint: Schema and link rules evaluated over a scanned corpus
//   - logging: Structured logging built on slog
//   - registry: Document registry and event broadcasting system
//   - scanner: File system scanning and metadata extraction
//   - server: HTTP report server, WebSocket support, and middleware
//   - types: Shared document, link, and event types
//   - watcher: File system monitoring with debouncing
//
// # Inter-Package Communication
//
// Packages communicate through well-defined interfaces:
//
//   - Registry acts as the central event hub for document changes
//   - Scanner processes markdown files and populates the registry
//   - Lint and linkcheck consume the registry and produce reports
//   - Watcher monitors the file system and triggers registry updates
//   - Server coordinates between all components and handles user requests
//
// # Security Considerations
//
// Security is implemented at multiple layers:
//
//   - Config package validates all configuration inputs
//   - Server package implements origin validation for WebSocket upgrades
//   - Scanner and watcher packages validate file paths and prevent traversal
//   - Linkcheck only fetches http and https URLs and caps response reads
//
// For detailed documentation, see the individual package documentation.
package internal

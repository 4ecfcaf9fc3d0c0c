// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - CollectionStore: Collection configuration persistence
//   - RunStore: Run and run-error persistence
//   - SourceAdapter: Fetches documents from an external source
//   - AdapterFactory: Creates adapters from collection configuration
//   - CredentialCipher: Encrypts and decrypts adapter secrets
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven

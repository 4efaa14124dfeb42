// Package services defines the shared error taxonomy used by the engine
// stages. Sentinel errors classify failures so the caller can distinguish
// configuration mistakes, external tool failures, and transient conditions
// without parsing messages.
package services

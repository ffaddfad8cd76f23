// Package domain holds the core types and collaborator interfaces of the
// wagering-session engine. It has no dependencies on storage, transport or
// presentation packages; those implement the interfaces defined here.
package domain

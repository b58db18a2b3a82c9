package service

import "errors"

var (
	// ErrUnknownOntology is returned when no graph is registered for a namespace.
	ErrUnknownOntology = errors.New("service: unknown ontology")

	// ErrOntologyExists is returned when registering a namespace twice.
	ErrOntologyExists = errors.New("service: ontology already registered")
)

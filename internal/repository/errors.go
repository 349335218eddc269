// Package repository defines the MySQL data access layer and the sentinel
// errors shared by every repository.  Handlers translate these values into
// HTTP status codes with errors.Is.
package repository

import "errors"

// ErrNotFound is returned when a row does not exist, is inactive, or is not
// visible to the caller (e.g. a cashier of another company).
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state, such as a CPF already linked to another company.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when registering an e-mail that is already taken.
var ErrEmailExists = errors.New("email already registered")

// ErrCNPJExists is returned when registering a CNPJ that is already taken.
var ErrCNPJExists = errors.New("cnpj already registered")

// ErrCPFExists is returned when a CPF is already registered in the scope of
// the operation (same company for cashiers, globally for affiliates).
var ErrCPFExists = errors.New("cpf already registered")

// ErrHasPurchases is returned when deleting a cashier that recorded sales.
var ErrHasPurchases = errors.New("cashier has purchases")

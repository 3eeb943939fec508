// Package mocks provides shared test doubles for interfaces whose real
// implementations are awkward to drive from unit tests.
//
// Stores with meaningful behaviour have in-memory fakes in
// internal/testutils; the doubles here are for asserting interactions
// (testify/mock) or scripting single responses (function fields).
package mocks

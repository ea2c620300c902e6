// Package domain holds the core types shared across the console: the
// importable entity kinds, normalized candidate records, and import
// outcomes. It has no dependencies on transport or storage packages.
package domain

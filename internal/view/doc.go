// Package view derives the clinic screens from store snapshots. Every
// function is pure: inputs are never modified and results never alias them.
package view

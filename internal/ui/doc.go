// Package ui renders the human-facing output of the cpmv command.
package ui

// Package monitoring holds the process-wide diagnostic logger shared by the
// calculator, media and radar packages.
package monitoring

// Package naming derives output paths. Every encode writes
// <source stem>_compressed.mp4, either next to the source or in an
// override directory.
package naming

// Package fetch downloads the image-prediction file.
//
// The download is one GET with a timeout. There is no retry; a failed fetch
// fails the run and leaves any earlier copy of the file in place.
package fetch

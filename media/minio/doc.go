// Package minio stores profile images in an S3-compatible bucket using
// minio-go.
package minio

// Package objstore implements the document store contract on top of an
// S3-compatible bucket: one JSON object per document under a configurable key
// prefix. The bucket is provisioned on construction.
package objstore

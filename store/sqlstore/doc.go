// Package sqlstore implements the document store contract on top of a MySQL
// table, one row per document with the content payload serialized as JSON
// text. The backing table is provisioned on construction.
package sqlstore

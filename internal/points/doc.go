// Package points serializes classified records into line-protocol text.
//
// One record becomes one line per measurement: classified numeric fields
// group under their measurement in first-seen order and share the record's
// timestamp at seconds resolution. Determinism is a contract here — audit
// files are diffed between backfills and the store's overwrite semantics
// key on the serialized form.
package points

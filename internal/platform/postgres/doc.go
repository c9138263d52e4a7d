// Package postgres implements the task store on PostgreSQL through the pgx
// database/sql driver. Merges lock the task row with SELECT ... FOR UPDATE so
// concurrent webhook and poll updates for the same task are applied one at a
// time. The schema ships as goose migrations embedded in the binary.
package postgres

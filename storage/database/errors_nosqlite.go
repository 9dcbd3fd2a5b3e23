//go:build !cgo

package database

func trapSQLiteError(error) error { return nil }

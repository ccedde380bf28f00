package storage

import "context"

// Truncate empties the expenses table and resets identity between test cases.
func Truncate(r *SQLRepository) error {
	_, err := r.db.ExecContext(context.Background(), "TRUNCATE expenses RESTART IDENTITY")
	return err
}

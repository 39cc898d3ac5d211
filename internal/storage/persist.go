package storage

import (
	"context"
	"fmt"
	"log"
)

// PutBestEffort writes rec to store and never fails the caller: errors and
// panics from the backend are logged and returned for inspection only.
// A nil store is a no-op.
func PutBestEffort(ctx context.Context, store ResultStore, rec Record) (err error) {
	if store == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("storage panic: %v", r)
		}
		if err != nil {
			log.Printf("warning: could not store %s/%s: %v", rec.Table, rec.ID, err)
		}
	}()
	if err := rec.Validate(); err != nil {
		return err
	}
	return store.Put(ctx, rec)
}

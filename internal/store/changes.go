package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// Watch opens a change stream over the collection. Change streams require a
// replica set (or Atlas); on a standalone server this fails and the caller
// degrades to an error event.
func (s *Store) Watch(ctx context.Context) (ChangeStream, error) {
	cs, err := s.coll.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, fmt.Errorf("Watch: %w", err)
	}
	return cs, nil
}

/*
Package store provides BoltDB-backed persistence for subscription state.

The store package implements the Store interface using bbolt as the
underlying database. Subscription records (game type, ports, container
id and ip, status, timestamps) are serialized as JSON in a single
bucket. The database lives in the management data directory and is
opened with a short timeout so a concurrent invocation fails fast
instead of hanging on the file lock.

# Core Components

Store interface:
  - SaveSubscription / GetSubscription / ListSubscriptions / DeleteSubscription
  - Close

BoltStore:
  - File: <dataDir>/garrison.db
  - Bucket: subscriptions, keyed by subscription ID
  - CreatedAt set on first save, UpdatedAt on every save

# Usage

	st, err := store.NewBoltStore(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	err = st.SaveSubscription(&types.Subscription{
		ID:       "sub-1",
		GameType: "valheim",
		Status:   types.StatusRunning,
	})
*/
package store

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package authcache maintains the write-through authorization cache in Redis.

Each active principal has one entry under the shared "ms-users-" namespace
holding the identity and grant data that sibling services read to authorize
requests without calling back into this service.

# Write Discipline

Entries exist only for principals with an active session (or for registered
applications, which are always cached). Plain writes therefore refresh an
existing entry and silently skip absent keys; forced writes create the entry
and are reserved for session establishment and account restoration.
*/
package authcache

import (
	"context"
	"fmt"

	"github.com/taibuivan/yomira-identity/internal/platform/cache"
	"github.com/taibuivan/yomira-identity/internal/platform/constants"
)

// Profile carries the credit figures sibling services read from the cache.
type Profile struct {
	PaymentCapacity float64 `json:"payment_capacity"`
	SecondCredit    bool    `json:"second_credit"`
	AvailableCredit float64 `json:"available_credit"`
}

// Entry is the cached authorization snapshot of one principal.
type Entry struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Permissions []string `json:"permissions"`
	Roles       []string `json:"roles"`

	// Profile is nil for applications and for users without a profile row.
	Profile *Profile `json:"profile"`
}

// Writer owns every read and write against the authorization namespace.
type Writer struct {
	cache *cache.Cache
}

// NewWriter constructs a [Writer] on top of the shared cache client.
func NewWriter(c *cache.Cache) *Writer {
	return &Writer{cache: c}
}

// Key returns the namespaced cache key for a principal ID.
func Key(id string) string {
	return constants.CacheKeyPrefix + id
}

/*
WriteUser refreshes a user's authorization entry.

Description: Without force, the write is skipped when no entry exists so that
users without an active session never gain one through an unrelated update.
Forced writes create the entry unconditionally.

Parameters:
  - context: context.Context
  - entry: Entry
  - force: bool

Returns:
  - error: Redis failures (callers treat the write as best-effort)
*/
func (writer *Writer) WriteUser(context context.Context, entry Entry, force bool) error {
	if !force {
		exists, err := writer.cache.Exists(context, Key(entry.ID))
		if err != nil {
			return fmt.Errorf("authcache_exists_failed: %w", err)
		}
		if !exists {
			return nil
		}
	}

	// Entries live until logout or account removal deletes them.
	if err := writer.cache.Set(context, Key(entry.ID), entry, 0); err != nil {
		return fmt.Errorf("authcache_write_user_failed: %w", err)
	}

	return nil
}

/*
WriteApp writes an application's authorization entry unconditionally.

Applications have no session lifecycle; their entries exist for as long as
the application does.
*/
func (writer *Writer) WriteApp(context context.Context, entry Entry) error {
	if err := writer.cache.Set(context, Key(entry.ID), entry, 0); err != nil {
		return fmt.Errorf("authcache_write_app_failed: %w", err)
	}

	return nil
}

/*
Read loads a principal's authorization entry.

Returns:
  - *Entry: Cached snapshot
  - error: cache.ErrMiss when absent, or Redis failures
*/
func (writer *Writer) Read(context context.Context, id string) (*Entry, error) {
	entry := &Entry{}
	if err := writer.cache.Get(context, Key(id), entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// Delete removes a principal's authorization entry. Deleting an absent key is
// not an error.
func (writer *Writer) Delete(context context.Context, id string) error {
	if err := writer.cache.Delete(context, Key(id)); err != nil {
		return fmt.Errorf("authcache_delete_failed: %w", err)
	}

	return nil
}

// Exists reports whether a principal currently has a cached entry.
func (writer *Writer) Exists(context context.Context, id string) (bool, error) {
	return writer.cache.Exists(context, Key(id))
}

// Truncate removes every entry in the authorization namespace and returns the
// number of deleted keys.
func (writer *Writer) Truncate(context context.Context) (int, error) {
	return writer.cache.Truncate(context, constants.CacheKeyPrefix)
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-identity/internal/access"
	"github.com/taibuivan/yomira-identity/internal/platform/apperr"
	"github.com/taibuivan/yomira-identity/internal/platform/sec"
	"github.com/taibuivan/yomira-identity/internal/users/app"
	"github.com/taibuivan/yomira-identity/internal/users/auth"
	"github.com/taibuivan/yomira-identity/internal/users/user"
)

// fakeAppStore embeds the interface so only the lookup needs a real body.
type fakeAppStore struct {
	app.Store
	apps map[string]app.App
}

func (s *fakeAppStore) FindByID(_ context.Context, id string) (*app.App, error) {
	a, ok := s.apps[id]
	if !ok {
		return nil, apperr.NotFound("App")
	}
	return &a, nil
}

/*
TestDirectory_Resolve covers the lookup order: the user table is consulted
first, the app table is the fallback, and a subject found in neither is
unauthorized.
*/
func TestDirectory_Resolve(t *testing.T) {
	deleted := time.Now()
	userStore := newFakeUserStore()
	userStore.users["u-1"] = user.User{ID: "u-1", Email: "ana@yomira.app"}
	userStore.users["u-gone"] = user.User{ID: "u-gone", DeletedAt: &deleted}
	appStore := &fakeAppStore{apps: map[string]app.App{"a-1": {ID: "a-1", Name: "billing"}}}

	directory := auth.NewDirectory(userStore, appStore)

	tests := []struct {
		name     string
		claims   *sec.Claims
		wantKind access.Kind
		wantErr  bool
	}{
		{
			name:     "living_user",
			claims:   &sec.Claims{ID: "u-1", Session: "marker"},
			wantKind: access.KindUser,
		},
		{
			name:     "app_via_fallback",
			claims:   &sec.Claims{ID: "a-1"},
			wantKind: access.KindApp,
		},
		{
			name:    "soft_deleted_user",
			claims:  &sec.Claims{ID: "u-gone", Session: "marker"},
			wantErr: true,
		},
		{
			name:    "unknown_subject",
			claims:  &sec.Claims{ID: "nobody"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal, err := directory.Resolve(context.Background(), tt.claims)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, "Account no longer exists", err.Error())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, principal.Kind)
			assert.Equal(t, tt.claims.ID, principal.ID)
		})
	}
}

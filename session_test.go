package auth_test

import (
	"testing"

	auth "github.com/goliatone/go-auth-session"
	"github.com/stretchr/testify/assert"
)

func TestSessionIdentityAvailability(t *testing.T) {
	ann := auth.Identity{UID: "ann", Email: "ann@x.com"}

	tests := []struct {
		name          string
		session       auth.Session
		hasIdentity   bool
		resolved      bool
		authenticated bool
	}{
		{"unresolved", auth.Unresolved(), false, false, false},
		{"anonymous", auth.Anonymous(), false, true, false},
		{"confirming", auth.Confirming(ann), true, true, false},
		{"authenticated", auth.Authenticated(ann), true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := tt.session.Identity()
			assert.Equal(t, tt.hasIdentity, ok)
			if ok {
				assert.Equal(t, ann, id)
			} else {
				assert.True(t, id.IsZero())
			}
			assert.Equal(t, tt.resolved, tt.session.IsResolved())
			assert.Equal(t, tt.authenticated, tt.session.IsAuthenticated())
		})
	}
}

func TestSessionString(t *testing.T) {
	assert.Equal(t, "session=anonymous epoch=3", auth.Anonymous().WithEpoch(3).String())
	assert.Contains(t, auth.Authenticated(auth.Identity{UID: "ann"}).String(), "uid=ann")
	assert.Equal(t, "status(9)", auth.Status(9).String())
}

func TestIdentityMergeKeepsUnsetFields(t *testing.T) {
	old := auth.Identity{UID: "ann", DisplayName: "Old", Email: "ann@x.com", PhotoURL: "p"}

	merged := old.Merge(auth.PatchDisplayName("New"))
	assert.Equal(t, auth.Identity{UID: "ann", DisplayName: "New", Email: "ann@x.com", PhotoURL: "p"}, merged)

	merged = old.Merge(auth.PatchPhotoURL(""))
	assert.Equal(t, "", merged.PhotoURL)
	assert.Equal(t, "Old", merged.DisplayName)

	assert.Equal(t, old, old.Merge(auth.ProfilePatch{}))
}

func TestProfilePatchMetadata(t *testing.T) {
	assert.True(t, auth.ProfilePatch{}.IsEmpty())
	assert.Empty(t, auth.ProfilePatch{}.Metadata())

	patch := auth.NewProfilePatch("Ann", "http://img")
	assert.False(t, patch.IsEmpty())
	assert.Equal(t, map[string]any{"display_name": "Ann", "photo_url": "http://img"}, patch.Metadata())
}

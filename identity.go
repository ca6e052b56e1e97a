package auth

import "fmt"

// Identity is the profile record of a signed in user as reported by the
// identity provider. The store keeps a copy, never a reference into the
// provider.
type Identity struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// IsZero reports whether the identity carries no UID.
func (i Identity) IsZero() bool {
	return i.UID == ""
}

// Merge applies the set fields of patch and keeps everything else.
func (i Identity) Merge(patch ProfilePatch) Identity {
	if patch.DisplayName != nil {
		i.DisplayName = *patch.DisplayName
	}
	if patch.PhotoURL != nil {
		i.PhotoURL = *patch.PhotoURL
	}
	return i
}

func (i Identity) String() string {
	return fmt.Sprintf("uid=%s email=%s name=%q", i.UID, i.Email, i.DisplayName)
}

// ProfilePatch describes a partial profile update. Nil fields are left as is.
type ProfilePatch struct {
	DisplayName *string `json:"display_name,omitempty"`
	PhotoURL    *string `json:"photo_url,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ProfilePatch) IsEmpty() bool {
	return p.DisplayName == nil && p.PhotoURL == nil
}

// Metadata returns the patched fields, used for logging and activity events.
func (p ProfilePatch) Metadata() map[string]any {
	meta := map[string]any{}
	if p.DisplayName != nil {
		meta["display_name"] = *p.DisplayName
	}
	if p.PhotoURL != nil {
		meta["photo_url"] = *p.PhotoURL
	}
	return meta
}

// PatchDisplayName builds a patch that only changes the display name.
func PatchDisplayName(name string) ProfilePatch {
	return ProfilePatch{DisplayName: &name}
}

// PatchPhotoURL builds a patch that only changes the avatar URL.
func PatchPhotoURL(url string) ProfilePatch {
	return ProfilePatch{PhotoURL: &url}
}

// NewProfilePatch builds a patch changing both mutable fields.
func NewProfilePatch(name, photoURL string) ProfilePatch {
	return ProfilePatch{DisplayName: &name, PhotoURL: &photoURL}
}

package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileLinkUnmarshalBareString(t *testing.T) {
	var l ProfileLink
	require.NoError(t, json.Unmarshal([]byte(`"https://github.com/ada"`), &l))
	assert.Empty(t, l.Title)
	assert.Equal(t, "https://github.com/ada", l.URL)
}

func TestProfileLinkUnmarshalObject(t *testing.T) {
	var l ProfileLink
	require.NoError(t, json.Unmarshal([]byte(`{"title":"GitHub","url":"https://github.com/ada"}`), &l))
	assert.Equal(t, "GitHub", l.Title)
	assert.Equal(t, "https://github.com/ada", l.URL)
}

func TestProfileLinkUnmarshalMixedSlice(t *testing.T) {
	var rec UserRecord
	payload := `{"id":"u1","name":"Ada","provider":"google","provider_id":"ada@tryo.dev",
		"links":["https://ada.dev",{"title":"GitHub","url":"https://github.com/ada"}]}`
	require.NoError(t, json.Unmarshal([]byte(payload), &rec))
	require.Len(t, rec.Links, 2)
	assert.Equal(t, "https://ada.dev", rec.Links[0].URL)
	assert.Equal(t, "GitHub", rec.Links[1].Title)
}

func TestProviderValid(t *testing.T) {
	assert.True(t, ProviderGoogle.Valid())
	assert.True(t, ProviderFacebook.Valid())
	assert.False(t, Provider("github").Valid())
	assert.False(t, Provider("").Valid())
}

func TestPublicProjectionOmitsPrivateFields(t *testing.T) {
	u := UserRecord{
		ID:          "u1",
		Name:        "Ada",
		Provider:    ProviderGoogle,
		ProviderID:  "ada@tryo.dev",
		Bio:         "building things",
		PhoneNumber: "+4915112345678",
		CVFileURL:   "https://storage.googleapis.com/b/cv.pdf",
	}
	p := u.Public()
	assert.Equal(t, "Ada", p.Name)
	assert.Equal(t, "building things", p.Bio)

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "ada@tryo.dev")
	assert.NotContains(t, string(b), "+4915112345678")
	assert.NotContains(t, string(b), "cv.pdf")
}

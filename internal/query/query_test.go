package query

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/taskhub/internal/models"
	"github.com/taskhub/taskhub/internal/store"
	"github.com/taskhub/taskhub/pkg/apperr"
)

func values(pairs map[string]string) url.Values {
	v := url.Values{}
	for k, val := range pairs {
		v.Set(k, val)
	}
	return v
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]string
		want    func(t *testing.T, p *ListParams)
		wantErr bool
	}{
		{
			name:   "empty",
			params: nil,
			want: func(t *testing.T, p *ListParams) {
				assert.Nil(t, p.Where)
				assert.Nil(t, p.Sort)
				assert.Nil(t, p.Projection)
				assert.False(t, p.Count)
			},
		},
		{
			name:   "where filter",
			params: map[string]string{"where": `{"completed": false}`},
			want: func(t *testing.T, p *ListParams) {
				assert.Equal(t, map[string]any{"completed": false}, p.Where)
			},
		},
		{
			name:   "sort descending",
			params: map[string]string{"sort": `{"deadline": -1}`},
			want: func(t *testing.T, p *ListParams) {
				assert.Equal(t, []store.SortField{{Field: "deadline", Desc: true}}, p.Sort)
			},
		},
		{
			name:   "skip limit count",
			params: map[string]string{"skip": "5", "limit": "10", "count": "true"},
			want: func(t *testing.T, p *ListParams) {
				assert.Equal(t, 5, p.Skip)
				assert.Equal(t, 10, p.Limit)
				assert.True(t, p.Count)
			},
		},
		{
			name:    "malformed where",
			params:  map[string]string{"where": `{oops`},
			wantErr: true,
		},
		{
			name:    "malformed sort",
			params:  map[string]string{"sort": `["deadline"]`},
			wantErr: true,
		},
		{
			name:    "malformed select",
			params:  map[string]string{"select": `nope`},
			wantErr: true,
		},
		{
			name:    "negative skip",
			params:  map[string]string{"skip": "-1"},
			wantErr: true,
		},
		{
			name:    "non numeric limit",
			params:  map[string]string{"limit": "ten"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseList(values(tt.params))
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperr.KindQuery, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			tt.want(t, p)
		})
	}
}

func TestProjection_Include(t *testing.T) {
	proj, err := ParseProjection(`{"name": 1}`)
	require.NoError(t, err)

	task := &models.Task{ID: "t1", Name: "visible", Description: "hidden", Deadline: time.Now()}
	doc, err := proj.Apply(task)
	require.NoError(t, err)

	assert.Equal(t, "visible", doc["name"])
	assert.Equal(t, "t1", doc["_id"])
	_, hasDesc := doc["description"]
	assert.False(t, hasDesc)
}

func TestProjection_Exclude(t *testing.T) {
	proj, err := ParseProjection(`{"description": 0, "_id": 0}`)
	require.NoError(t, err)

	task := &models.Task{ID: "t1", Name: "kept", Description: "dropped"}
	doc, err := proj.Apply(task)
	require.NoError(t, err)

	assert.Equal(t, "kept", doc["name"])
	_, hasDesc := doc["description"]
	assert.False(t, hasDesc)
	_, hasID := doc["_id"]
	assert.False(t, hasID)
}

func TestProjection_NilReturnsFullDocument(t *testing.T) {
	var proj *Projection
	task := &models.Task{ID: "t1", Name: "all"}
	doc, err := proj.Apply(task)
	require.NoError(t, err)
	assert.Equal(t, "all", doc["name"])
	assert.Equal(t, "t1", doc["_id"])
}

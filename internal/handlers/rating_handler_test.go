package handlers

import (
	"net/http"
	"testing"

	"github.com/meshvault/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAddRatingRecomputesAverage(t *testing.T) {
	caller := newTestUser(models.RoleUser)
	env := newTestEnv(t, caller.ID)
	env.users.add(caller)
	owner := env.users.add(newTestUser(models.RoleCreator))
	model := env.models.add(&models.Model{Name: "Statue", User: owner.ID})

	// Another user already rated 4; the caller's 2 makes the average 3.0
	env.ratings.items = append(env.ratings.items,
		&models.Rating{ID: primitive.NewObjectID(), Rating: 4, User: primitive.NewObjectID(), Model: model.ID},
	)

	rec := env.do(http.MethodPost, "/api/models/"+model.ID.Hex()+"/ratings", map[string]interface{}{"rating": 2, "review": "Rough edges"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, env.models.get(model.ID).AverageRating)
	assert.Equal(t, 3.0, *env.models.get(model.ID).AverageRating)
}

func TestAddRatingRoundsToOneDecimal(t *testing.T) {
	owner := newTestUser(models.RoleUser)
	env := newTestEnv(t, owner.ID)
	env.users.add(owner)
	model := env.models.add(&models.Model{Name: "Statue", User: owner.ID})

	// Pre-seed two ratings so the caller's 5 makes the mean 10/3
	env.ratings.items = append(env.ratings.items,
		&models.Rating{ID: primitive.NewObjectID(), Rating: 4, User: primitive.NewObjectID(), Model: model.ID},
		&models.Rating{ID: primitive.NewObjectID(), Rating: 1, User: primitive.NewObjectID(), Model: model.ID},
	)

	rec := env.do(http.MethodPost, "/api/models/"+model.ID.Hex()+"/ratings", map[string]interface{}{"rating": 5})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, env.models.get(model.ID).AverageRating)
	assert.Equal(t, 3.3, *env.models.get(model.ID).AverageRating)
}

func TestAddRatingTwiceRejected(t *testing.T) {
	caller := newTestUser(models.RoleUser)
	env := newTestEnv(t, caller.ID)
	env.users.add(caller)
	model := env.models.add(&models.Model{Name: "Statue", User: caller.ID})

	rec := env.do(http.MethodPost, "/api/models/"+model.ID.Hex()+"/ratings", map[string]interface{}{"rating": 5})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(http.MethodPost, "/api/models/"+model.ID.Hex()+"/ratings", map[string]interface{}{"rating": 3})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You have already rated this model", decodeResponse(t, rec).Error)
	assert.Len(t, env.ratings.items, 1)
}

func TestAddRatingModelNotFound(t *testing.T) {
	caller := newTestUser(models.RoleUser)
	env := newTestEnv(t, caller.ID)
	env.users.add(caller)

	rec := env.do(http.MethodPost, "/api/models/"+primitive.NewObjectID().Hex()+"/ratings", map[string]interface{}{"rating": 5})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddRatingOutOfRange(t *testing.T) {
	caller := newTestUser(models.RoleUser)
	env := newTestEnv(t, caller.ID)
	env.users.add(caller)
	model := env.models.add(&models.Model{Name: "Statue", User: caller.ID})

	rec := env.do(http.MethodPost, "/api/models/"+model.ID.Hex()+"/ratings", map[string]interface{}{"rating": 6})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateRatingDoesNotRecompute(t *testing.T) {
	caller := newTestUser(models.RoleUser)
	env := newTestEnv(t, caller.ID)
	env.users.add(caller)
	model := env.models.add(&models.Model{Name: "Statue", User: caller.ID})

	rec := env.do(http.MethodPost, "/api/models/"+model.ID.Hex()+"/ratings", map[string]interface{}{"rating": 4})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Rating
	decodeData(t, rec, &created)

	rec = env.do(http.MethodPut, "/api/ratings/"+created.ID.Hex(), map[string]interface{}{"rating": 1})
	require.Equal(t, http.StatusOK, rec.Code)

	// The stored rating changed but the materialized average did not
	assert.Equal(t, 1, env.ratings.get(created.ID).Rating)
	require.NotNil(t, env.models.get(model.ID).AverageRating)
	assert.Equal(t, 4.0, *env.models.get(model.ID).AverageRating)
}

func TestUpdateRatingForbidden(t *testing.T) {
	caller := newTestUser(models.RoleUser)
	env := newTestEnv(t, caller.ID)
	env.users.add(caller)
	other := env.users.add(newTestUser(models.RoleUser))
	model := env.models.add(&models.Model{Name: "Statue", User: caller.ID})
	rating := &models.Rating{ID: primitive.NewObjectID(), Rating: 5, User: other.ID, Model: model.ID}
	env.ratings.items = append(env.ratings.items, rating)

	rec := env.do(http.MethodPut, "/api/ratings/"+rating.ID.Hex(), map[string]interface{}{"rating": 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 5, env.ratings.get(rating.ID).Rating)
}

func TestDeleteRatingRecomputesAverage(t *testing.T) {
	caller := newTestUser(models.RoleUser)
	env := newTestEnv(t, caller.ID)
	env.users.add(caller)
	model := env.models.add(&models.Model{Name: "Statue", User: caller.ID})
	mine := &models.Rating{ID: primitive.NewObjectID(), Rating: 2, User: caller.ID, Model: model.ID}
	env.ratings.items = append(env.ratings.items,
		mine,
		&models.Rating{ID: primitive.NewObjectID(), Rating: 4, User: primitive.NewObjectID(), Model: model.ID},
	)
	three := 3.0
	model.AverageRating = &three

	rec := env.do(http.MethodDelete, "/api/ratings/"+mine.ID.Hex(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.models.get(model.ID).AverageRating)
	assert.Equal(t, 4.0, *env.models.get(model.ID).AverageRating)
}

func TestDeleteLastRatingUnsetsAverage(t *testing.T) {
	caller := newTestUser(models.RoleUser)
	env := newTestEnv(t, caller.ID)
	env.users.add(caller)
	model := env.models.add(&models.Model{Name: "Statue", User: caller.ID})
	mine := &models.Rating{ID: primitive.NewObjectID(), Rating: 2, User: caller.ID, Model: model.ID}
	env.ratings.items = append(env.ratings.items, mine)
	two := 2.0
	model.AverageRating = &two

	rec := env.do(http.MethodDelete, "/api/ratings/"+mine.ID.Hex(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, env.models.get(model.ID).AverageRating)
	assert.Empty(t, env.ratings.items)
}

func TestGetRatingsByModel(t *testing.T) {
	caller := newTestUser(models.RoleUser)
	env := newTestEnv(t, caller.ID)
	reviewer := env.users.add(&models.User{Name: "Reviewer", Role: models.RoleUser})
	model := env.models.add(&models.Model{Name: "Statue", User: reviewer.ID})
	env.ratings.items = append(env.ratings.items,
		&models.Rating{ID: primitive.NewObjectID(), Rating: 5, Review: "Great", User: reviewer.ID, Model: model.ID},
		&models.Rating{ID: primitive.NewObjectID(), Rating: 3, User: reviewer.ID, Model: primitive.NewObjectID()},
	)

	rec := env.do(http.MethodGet, "/api/models/"+model.ID.Hex()+"/ratings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Count)
	assert.Equal(t, 1, *resp.Count)

	var populated []models.PopulatedRating
	decodeData(t, rec, &populated)
	require.Len(t, populated, 1)
	require.NotNil(t, populated[0].User)
	assert.Equal(t, "Reviewer", populated[0].User.Name)
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/meshvault/backend/internal/models"
	"github.com/meshvault/backend/internal/repositories"
	"github.com/meshvault/backend/validators"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory fakes standing in for the Mongo repositories. They implement the
// subset of Mongo update semantics the handlers actually use.

type fakeUserRepo struct {
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (f *fakeUserRepo) add(u *models.User) *models.User {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetPublicByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.PublicUser, error) {
	result := make(map[primitive.ObjectID]*models.PublicUser)
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			result[id] = u.Public()
		}
	}
	return result, nil
}

func (f *fakeUserRepo) List(ctx context.Context, opts repositories.ListOptions) ([]models.User, error) {
	result := []models.User{}
	for _, u := range f.users {
		result = append(result, *u)
	}
	return result, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	u, ok := f.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	for key, value := range update {
		switch key {
		case "name":
			u.Name = value.(string)
		case "email":
			u.Email = value.(string)
		case "role":
			u.Role = value.(string)
		case "avatar":
			u.Avatar = value.(string)
		case "preferences":
			u.Preferences = value.(map[string]interface{})
		}
	}
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := f.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) AddFavorite(ctx context.Context, id, modelID primitive.ObjectID) error {
	u, ok := f.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	for _, fav := range u.Favorites {
		if fav == modelID {
			return nil
		}
	}
	u.Favorites = append(u.Favorites, modelID)
	return nil
}

func (f *fakeUserRepo) RemoveFavorite(ctx context.Context, id, modelID primitive.ObjectID) error {
	u, ok := f.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	kept := u.Favorites[:0]
	for _, fav := range u.Favorites {
		if fav != modelID {
			kept = append(kept, fav)
		}
	}
	u.Favorites = kept
	return nil
}

type fakeModelRepo struct {
	items []*models.Model
}

func (f *fakeModelRepo) add(m *models.Model) *models.Model {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	f.items = append(f.items, m)
	return m
}

func (f *fakeModelRepo) get(id primitive.ObjectID) *models.Model {
	for _, m := range f.items {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (f *fakeModelRepo) Create(ctx context.Context, m *models.Model) error {
	m.ID = primitive.NewObjectID()
	m.CreatedAt = time.Now()
	f.items = append(f.items, m)
	return nil
}

func (f *fakeModelRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Model, error) {
	m := f.get(id)
	if m == nil {
		return nil, repositories.ErrNotFound
	}
	copied := *m
	return &copied, nil
}

func (f *fakeModelRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Model, error) {
	result := []models.Model{}
	for _, id := range ids {
		if m := f.get(id); m != nil {
			result = append(result, *m)
		}
	}
	return result, nil
}

func (f *fakeModelRepo) List(ctx context.Context, opts repositories.ListOptions) ([]models.Model, error) {
	result := []models.Model{}
	for _, m := range f.items {
		result = append(result, *m)
	}
	return result, nil
}

func (f *fakeModelRepo) ListFeatured(ctx context.Context) ([]models.Model, error) {
	result := []models.Model{}
	for _, m := range f.items {
		if m.Featured {
			result = append(result, *m)
		}
	}
	return result, nil
}

func (f *fakeModelRepo) ListByCategory(ctx context.Context, category string) ([]models.Model, error) {
	result := []models.Model{}
	for _, m := range f.items {
		if m.Category == category {
			result = append(result, *m)
		}
	}
	return result, nil
}

func (f *fakeModelRepo) ListByTag(ctx context.Context, tag string) ([]models.Model, error) {
	result := []models.Model{}
	for _, m := range f.items {
		for _, t := range m.Tags {
			if t == tag {
				result = append(result, *m)
				break
			}
		}
	}
	return result, nil
}

func (f *fakeModelRepo) Update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	m := f.get(id)
	if m == nil {
		return repositories.ErrNotFound
	}
	for key, value := range update {
		switch key {
		case "name":
			m.Name = value.(string)
		case "slug":
			m.Slug = value.(string)
		case "description":
			m.Description = value.(string)
		case "filePath":
			m.FilePath = value.(string)
		case "fileFormat":
			m.FileFormat = value.(string)
		case "thumbnail":
			m.Thumbnail = value.(string)
		case "category":
			m.Category = value.(string)
		case "tags":
			m.Tags = value.([]string)
		case "polygonCount":
			m.PolygonCount = value.(int)
		case "textured":
			m.Textured = value.(bool)
		case "animated":
			m.Animated = value.(bool)
		case "rigged":
			m.Rigged = value.(bool)
		case "featured":
			m.Featured = value.(bool)
		}
	}
	return nil
}

func (f *fakeModelRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	for i, m := range f.items {
		if m.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *fakeModelRepo) IncrementDownloadCount(ctx context.Context, id primitive.ObjectID) (int, error) {
	m := f.get(id)
	if m == nil {
		return 0, repositories.ErrNotFound
	}
	m.DownloadCount++
	return m.DownloadCount, nil
}

func (f *fakeModelRepo) IncrementViewCount(ctx context.Context, id primitive.ObjectID) (int, error) {
	m := f.get(id)
	if m == nil {
		return 0, repositories.ErrNotFound
	}
	m.ViewCount++
	return m.ViewCount, nil
}

type fakeCommentRepo struct {
	items []*models.Comment
}

func (f *fakeCommentRepo) add(c *models.Comment) *models.Comment {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Likes == nil {
		c.Likes = []primitive.ObjectID{}
	}
	f.items = append(f.items, c)
	return c
}

func (f *fakeCommentRepo) get(id primitive.ObjectID) *models.Comment {
	for _, c := range f.items {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (f *fakeCommentRepo) Create(ctx context.Context, c *models.Comment) error {
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now()
	if c.Likes == nil {
		c.Likes = []primitive.ObjectID{}
	}
	f.items = append(f.items, c)
	return nil
}

func (f *fakeCommentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	c := f.get(id)
	if c == nil {
		return nil, repositories.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCommentRepo) List(ctx context.Context, opts repositories.ListOptions) ([]models.Comment, error) {
	result := []models.Comment{}
	for _, c := range f.items {
		result = append(result, *c)
	}
	return result, nil
}

func (f *fakeCommentRepo) ListTopLevelByModelID(ctx context.Context, modelID primitive.ObjectID) ([]models.Comment, error) {
	result := []models.Comment{}
	for _, c := range f.items {
		if c.Model == modelID && c.Parent == nil {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (f *fakeCommentRepo) ListByParentID(ctx context.Context, parentID primitive.ObjectID) ([]models.Comment, error) {
	result := []models.Comment{}
	for _, c := range f.items {
		if c.Parent != nil && *c.Parent == parentID {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (f *fakeCommentRepo) ListByTutorialID(ctx context.Context, tutorialID primitive.ObjectID) ([]models.Comment, error) {
	// Comments carry no tutorial key, matching the real collection
	return []models.Comment{}, nil
}

func (f *fakeCommentRepo) Update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	c := f.get(id)
	if c == nil {
		return repositories.ErrNotFound
	}
	if text, ok := update["text"].(string); ok {
		c.Text = text
	}
	return nil
}

func (f *fakeCommentRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	for i, c := range f.items {
		if c.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *fakeCommentRepo) DeleteByModelID(ctx context.Context, modelID primitive.ObjectID) error {
	kept := f.items[:0]
	for _, c := range f.items {
		if c.Model != modelID {
			kept = append(kept, c)
		}
	}
	f.items = kept
	return nil
}

func (f *fakeCommentRepo) DeleteByParentID(ctx context.Context, parentID primitive.ObjectID) error {
	kept := f.items[:0]
	for _, c := range f.items {
		if c.Parent == nil || *c.Parent != parentID {
			kept = append(kept, c)
		}
	}
	f.items = kept
	return nil
}

func (f *fakeCommentRepo) DeleteByTutorialID(ctx context.Context, tutorialID primitive.ObjectID) error {
	return nil
}

func (f *fakeCommentRepo) AddLike(ctx context.Context, id, userID primitive.ObjectID) error {
	c := f.get(id)
	if c == nil {
		return repositories.ErrNotFound
	}
	for _, like := range c.Likes {
		if like == userID {
			return nil
		}
	}
	c.Likes = append(c.Likes, userID)
	return nil
}

func (f *fakeCommentRepo) RemoveLike(ctx context.Context, id, userID primitive.ObjectID) error {
	c := f.get(id)
	if c == nil {
		return repositories.ErrNotFound
	}
	kept := c.Likes[:0]
	for _, like := range c.Likes {
		if like != userID {
			kept = append(kept, like)
		}
	}
	c.Likes = kept
	return nil
}

type fakeRatingRepo struct {
	items  []*models.Rating
	models *fakeModelRepo
}

func (f *fakeRatingRepo) get(id primitive.ObjectID) *models.Rating {
	for _, r := range f.items {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (f *fakeRatingRepo) Create(ctx context.Context, r *models.Rating) error {
	for _, existing := range f.items {
		if existing.Model == r.Model && existing.User == r.User {
			return repositories.ErrDuplicate
		}
	}
	r.ID = primitive.NewObjectID()
	r.CreatedAt = time.Now()
	f.items = append(f.items, r)
	return nil
}

func (f *fakeRatingRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Rating, error) {
	r := f.get(id)
	if r == nil {
		return nil, repositories.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRatingRepo) List(ctx context.Context, opts repositories.ListOptions) ([]models.Rating, error) {
	result := []models.Rating{}
	for _, r := range f.items {
		result = append(result, *r)
	}
	return result, nil
}

func (f *fakeRatingRepo) ListByModelID(ctx context.Context, modelID primitive.ObjectID) ([]models.Rating, error) {
	result := []models.Rating{}
	for _, r := range f.items {
		if r.Model == modelID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (f *fakeRatingRepo) FindByUserAndModel(ctx context.Context, userID, modelID primitive.ObjectID) (*models.Rating, error) {
	for _, r := range f.items {
		if r.User == userID && r.Model == modelID {
			copied := *r
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeRatingRepo) Update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	r := f.get(id)
	if r == nil {
		return repositories.ErrNotFound
	}
	if rating, ok := update["rating"].(int); ok {
		r.Rating = rating
	}
	if review, ok := update["review"].(string); ok {
		r.Review = review
	}
	return nil
}

func (f *fakeRatingRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	for i, r := range f.items {
		if r.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *fakeRatingRepo) DeleteByModelID(ctx context.Context, modelID primitive.ObjectID) error {
	kept := f.items[:0]
	for _, r := range f.items {
		if r.Model != modelID {
			kept = append(kept, r)
		}
	}
	f.items = kept
	return nil
}

func (f *fakeRatingRepo) RecalculateAverage(ctx context.Context, modelID primitive.ObjectID) error {
	m := f.models.get(modelID)
	if m == nil {
		return nil
	}
	sum, count := 0, 0
	for _, r := range f.items {
		if r.Model == modelID {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		m.AverageRating = nil
		return nil
	}
	average := math.Round(float64(sum)/float64(count)*10) / 10
	m.AverageRating = &average
	return nil
}

type fakeTutorialRepo struct {
	items []*models.Tutorial
}

func (f *fakeTutorialRepo) add(t *models.Tutorial) *models.Tutorial {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	f.items = append(f.items, t)
	return t
}

func (f *fakeTutorialRepo) get(id primitive.ObjectID) *models.Tutorial {
	for _, t := range f.items {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (f *fakeTutorialRepo) Create(ctx context.Context, t *models.Tutorial) error {
	for _, existing := range f.items {
		if existing.Title == t.Title {
			return repositories.ErrDuplicate
		}
	}
	t.ID = primitive.NewObjectID()
	t.CreatedAt = time.Now()
	f.items = append(f.items, t)
	return nil
}

func (f *fakeTutorialRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Tutorial, error) {
	t := f.get(id)
	if t == nil {
		return nil, repositories.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTutorialRepo) List(ctx context.Context, opts repositories.ListOptions) ([]models.Tutorial, error) {
	result := []models.Tutorial{}
	for _, t := range f.items {
		result = append(result, *t)
	}
	return result, nil
}

func (f *fakeTutorialRepo) ListFeatured(ctx context.Context) ([]models.Tutorial, error) {
	result := []models.Tutorial{}
	for _, t := range f.items {
		if t.Featured && t.Published {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (f *fakeTutorialRepo) ListByCategory(ctx context.Context, category string) ([]models.Tutorial, error) {
	result := []models.Tutorial{}
	for _, t := range f.items {
		if t.Category == category && t.Published {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (f *fakeTutorialRepo) ListByDifficulty(ctx context.Context, difficulty string) ([]models.Tutorial, error) {
	result := []models.Tutorial{}
	for _, t := range f.items {
		if t.Difficulty == difficulty && t.Published {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (f *fakeTutorialRepo) ListByTag(ctx context.Context, tag string) ([]models.Tutorial, error) {
	result := []models.Tutorial{}
	for _, t := range f.items {
		if !t.Published {
			continue
		}
		for _, candidate := range t.Tags {
			if candidate == tag {
				result = append(result, *t)
				break
			}
		}
	}
	return result, nil
}

func (f *fakeTutorialRepo) Update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	t := f.get(id)
	if t == nil {
		return repositories.ErrNotFound
	}
	if title, ok := update["title"].(string); ok {
		for _, other := range f.items {
			if other.ID != id && other.Title == title {
				return repositories.ErrDuplicate
			}
		}
		t.Title = title
	}
	for key, value := range update {
		switch key {
		case "slug":
			t.Slug = value.(string)
		case "description":
			t.Description = value.(string)
		case "content":
			t.Content = value.(string)
		case "thumbnail":
			t.Thumbnail = value.(string)
		case "category":
			t.Category = value.(string)
		case "tags":
			t.Tags = value.([]string)
		case "difficulty":
			t.Difficulty = value.(string)
		case "duration":
			t.Duration = value.(int)
		case "relatedModels":
			t.RelatedModels = value.([]primitive.ObjectID)
		case "featured":
			t.Featured = value.(bool)
		case "published":
			t.Published = value.(bool)
		}
	}
	return nil
}

func (f *fakeTutorialRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	for i, t := range f.items {
		if t.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *fakeTutorialRepo) IncrementViewCount(ctx context.Context, id primitive.ObjectID) (int, error) {
	t := f.get(id)
	if t == nil {
		return 0, repositories.ErrNotFound
	}
	t.ViewCount++
	return t.ViewCount, nil
}

type savedFile struct {
	dir     string
	name    string
	content []byte
}

type fakeStore struct {
	saved []savedFile
}

func (f *fakeStore) Save(ctx context.Context, dir, name string, src io.Reader) error {
	content, err := io.ReadAll(src)
	if err != nil {
		return err
	}
	f.saved = append(f.saved, savedFile{dir: dir, name: name, content: content})
	return nil
}

// testEnv wires every handler into a real Echo instance so tests exercise
// routing, binding and the error envelope end to end.
type testEnv struct {
	e         *echo.Echo
	users     *fakeUserRepo
	models    *fakeModelRepo
	comments  *fakeCommentRepo
	ratings   *fakeRatingRepo
	tutorials *fakeTutorialRepo
	store     *fakeStore
}

const testMaxUpload = 1024 * 1024

// authAs stands in for the JWT middleware, injecting caller into the request
// context. A nil caller rejects like a missing token would.
func authAs(env *testEnv, callerID primitive.ObjectID) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, ok := env.users.users[callerID]
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}
			copied := *caller
			c.Set("user", &copied)
			return next(c)
		}
	}
}

func newTestEnv(t *testing.T, callerID primitive.ObjectID) *testEnv {
	t.Helper()

	env := &testEnv{
		e:         echo.New(),
		users:     newFakeUserRepo(),
		models:    &fakeModelRepo{},
		comments:  &fakeCommentRepo{},
		tutorials: &fakeTutorialRepo{},
		store:     &fakeStore{},
	}
	env.ratings = &fakeRatingRepo{models: env.models}

	env.e.Validator = validators.NewValidator()
	env.e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.Nop())

	auth := authAs(env, callerID)
	api := env.e.Group("/api")
	NewModelHandler(env.models, env.comments, env.ratings, env.users, env.store, testMaxUpload).RegisterModelRoutes(api, auth)
	NewTutorialHandler(env.tutorials, env.models, env.comments, env.users, env.store, testMaxUpload).RegisterTutorialRoutes(api, auth)
	NewCommentHandler(env.comments, env.models, env.users).RegisterCommentRoutes(api, auth)
	NewRatingHandler(env.ratings, env.models, env.users, zerolog.Nop()).RegisterRatingRoutes(api, auth)
	NewUserHandler(env.users, env.models, env.store, testMaxUpload).RegisterUserRoutes(api, auth)
	return env
}

func (env *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) upload(t *testing.T, path, filename, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

// apiResponse mirrors the response envelope for decoding in assertions
type apiResponse struct {
	Success bool            `json:"success"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	resp := decodeResponse(t, rec)
	require.True(t, resp.Success)
	require.NoError(t, json.Unmarshal(resp.Data, out))
}

func newTestUser(role string) *models.User {
	return &models.User{
		ID:        primitive.NewObjectID(),
		Name:      "Test User",
		Email:     "test@example.com",
		Role:      role,
		Favorites: []primitive.ObjectID{},
	}
}

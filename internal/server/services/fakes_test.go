package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/foodgram/internal/common"
	"github.com/dmitrijs2005/foodgram/internal/dbx"
	"github.com/dmitrijs2005/foodgram/internal/server/config"
	"github.com/dmitrijs2005/foodgram/internal/server/images"
	"github.com/dmitrijs2005/foodgram/internal/server/models"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/ingredients"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/relations"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/tags"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func expectTx(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectCommit()
}

func testConfig() *config.Config {
	return &config.Config{SecretKey: "k", AccessTokenValidityDuration: time.Hour}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// memStore is an in-memory stand-in for the database shared by all fake
// repositories. Transactions are not modelled.
type memStore struct {
	mu sync.Mutex
	id int64

	users       map[int64]*models.User
	tokens      map[string]models.AuthToken
	tags        map[int64]models.Tag
	ingredients map[int64]models.Ingredient
	recipes     map[int64]*models.Recipe
	recipeTags  map[int64][]int64
	lines       map[int64][]models.IngredientAmount
	pairs       map[string]map[[2]int64]int64

	tagGets           int
	setIngredientsErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[int64]*models.User{},
		tokens:      map[string]models.AuthToken{},
		tags:        map[int64]models.Tag{},
		ingredients: map[int64]models.Ingredient{},
		recipes:     map[int64]*models.Recipe{},
		recipeTags:  map[int64][]int64{},
		lines:       map[int64][]models.IngredientAmount{},
		pairs:       map[string]map[[2]int64]int64{},
	}
}

func (m *memStore) next() int64 {
	m.id++
	return m.id
}

func (m *memStore) addUser(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next()
	m.users[id] = &models.User{ID: id, Email: name + "@example.com", UserName: name}
	return id
}

func (m *memStore) addTag(slug string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next()
	m.tags[id] = models.Tag{ID: id, Name: slug, Color: "#000000", Slug: slug}
	return id
}

func (m *memStore) addIngredient(name, unit string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next()
	m.ingredients[id] = models.Ingredient{ID: id, Name: name, MeasurementUnit: unit}
	return id
}

func (m *memStore) addRecipe(authorID int64, name string, lines ...models.IngredientAmount) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next()
	m.recipes[id] = &models.Recipe{ID: id, AuthorID: authorID, Name: name, CookingTime: 10, Image: "k" + name, PubDate: time.Now().Add(time.Duration(id) * time.Second)}
	m.lines[id] = lines
	return id
}

func (m *memStore) hasPair(rel relations.Relation, owner, target int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pairs[rel.Table][[2]int64{owner, target}]
	return ok
}

func (m *memStore) profile(viewerID int64, u *models.User) models.UserProfile {
	_, sub := m.pairs[relations.Subscriptions.Table][[2]int64{viewerID, u.ID}]
	return models.UserProfile{User: *u, IsSubscribed: sub}
}

// --- users ---

type memUsers struct{ *memStore }

func (r memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.users {
		if strings.EqualFold(x.Email, u.Email) || x.UserName == u.UserName {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.ID = r.next()
	c := *u
	r.users[u.ID] = &c
	return u, nil
}

func (r memUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) UpdatePassword(ctx context.Context, id int64, hash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r memUsers) Profile(ctx context.Context, viewerID, id int64) (*models.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	p := r.profile(viewerID, u)
	return &p, nil
}

func (r memUsers) Profiles(ctx context.Context, viewerID int64, ids []int64) ([]models.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.UserProfile
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, r.profile(viewerID, u))
		}
	}
	return out, nil
}

func (r memUsers) List(ctx context.Context, viewerID int64, limit, offset int) ([]models.UserProfile, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	var out []models.UserProfile
	for i, id := range ids {
		if i >= offset && len(out) < limit {
			out = append(out, r.profile(viewerID, r.users[id]))
		}
	}
	return out, len(ids), nil
}

// --- tokens ---

type memTokens struct{ *memStore }

func (r memTokens) Create(ctx context.Context, t *models.AuthToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[t.ID] = *t
	return nil
}

func (r memTokens) Find(ctx context.Context, id string) (*models.AuthToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r memTokens) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, id)
	return nil
}

func (r memTokens) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.tokens {
		if t.ExpiresAt.Before(time.Now()) {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}

// --- catalog ---

type memTags struct{ *memStore }

func (r memTags) List(ctx context.Context) ([]models.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Tag{}
	for _, t := range r.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memTags) GetByID(ctx context.Context, id int64) (*models.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tagGets++
	t, ok := r.tags[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r memTags) ForRecipes(ctx context.Context, ids []int64) (map[int64][]models.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[int64][]models.Tag{}
	for _, id := range ids {
		for _, tid := range r.recipeTags[id] {
			out[id] = append(out[id], r.tags[tid])
		}
	}
	return out, nil
}

func (r memTags) CountExisting(ctx context.Context, ids []int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, id := range ids {
		if _, ok := r.tags[id]; ok {
			n++
		}
	}
	return n, nil
}

func (r memTags) Load(ctx context.Context, items []models.Tag) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
outer:
	for _, it := range items {
		for _, t := range r.tags {
			if t.Slug == it.Slug {
				continue outer
			}
		}
		it.ID = r.next()
		r.tags[it.ID] = it
		n++
	}
	return n, nil
}

type memIngredients struct{ *memStore }

func (r memIngredients) Search(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Ingredient{}
	for _, i := range r.ingredients {
		if strings.HasPrefix(strings.ToLower(i.Name), strings.ToLower(prefix)) {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name > out[b].Name })
	return out, nil
}

func (r memIngredients) GetByID(ctx context.Context, id int64) (*models.Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.ingredients[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &i, nil
}

func (r memIngredients) CountExisting(ctx context.Context, ids []int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, id := range ids {
		if _, ok := r.ingredients[id]; ok {
			n++
		}
	}
	return n, nil
}

func (r memIngredients) Load(ctx context.Context, items []models.Ingredient) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
outer:
	for _, it := range items {
		for _, i := range r.ingredients {
			if i.Name == it.Name && i.MeasurementUnit == it.MeasurementUnit {
				continue outer
			}
		}
		it.ID = r.next()
		r.ingredients[it.ID] = it
		n++
	}
	return n, nil
}

// --- recipes ---

type memRecipes struct{ *memStore }

func (r memRecipes) Create(ctx context.Context, rec *models.Recipe) (*models.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.CookingTime < 1 {
		return nil, common.ErrorValidation
	}
	rec.ID = r.next()
	rec.PubDate = time.Now()
	c := *rec
	r.recipes[rec.ID] = &c
	return rec, nil
}

func (r memRecipes) Update(ctx context.Context, rec *models.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recipes[rec.ID]; !ok {
		return common.ErrorNotFound
	}
	c := *rec
	r.recipes[rec.ID] = &c
	return nil
}

func (r memRecipes) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recipes[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.recipes, id)
	delete(r.lines, id)
	delete(r.recipeTags, id)
	for _, pairs := range r.pairs {
		for k := range pairs {
			if k[1] == id {
				delete(pairs, k)
			}
		}
	}
	return nil
}

func (r memRecipes) GetByID(ctx context.Context, id int64) (*models.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recipes[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *rec
	return &c, nil
}

func (r memRecipes) GetShort(ctx context.Context, id int64) (*models.RecipeShort, error) {
	rec, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.RecipeShort{ID: rec.ID, AuthorID: rec.AuthorID, Name: rec.Name, Image: rec.Image, CookingTime: rec.CookingTime}, nil
}

func (r memRecipes) SetTags(ctx context.Context, recipeID int64, ids []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recipeTags[recipeID] = append([]int64(nil), ids...)
	return nil
}

func (r memRecipes) SetIngredients(ctx context.Context, recipeID int64, lines []models.IngredientAmount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setIngredientsErr != nil {
		return r.setIngredientsErr
	}
	r.lines[recipeID] = append([]models.IngredientAmount(nil), lines...)
	return nil
}

func (r memRecipes) details(viewerID int64, rec *models.Recipe) models.RecipeDetails {
	_, fav := r.pairs[relations.Favorites.Table][[2]int64{viewerID, rec.ID}]
	_, cart := r.pairs[relations.ShoppingCart.Table][[2]int64{viewerID, rec.ID}]
	return models.RecipeDetails{Recipe: *rec, IsFavorited: fav, IsInShoppingCart: cart}
}

func (r memRecipes) Get(ctx context.Context, viewerID, id int64) (*models.RecipeDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recipes[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	d := r.details(viewerID, rec)
	return &d, nil
}

func (r memRecipes) List(ctx context.Context, f models.RecipeFilter) ([]models.RecipeDetails, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []models.RecipeDetails
	for _, rec := range r.recipes {
		if f.AuthorID != 0 && rec.AuthorID != f.AuthorID {
			continue
		}
		d := r.details(f.ViewerID, rec)
		if f.ViewerID != common.AnonymousUserID && f.IsFavorited && !d.IsFavorited {
			continue
		}
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	out := []models.RecipeDetails{}
	for i, d := range all {
		if i >= f.Offset && len(out) < f.Limit {
			out = append(out, d)
		}
	}
	return out, len(all), nil
}

func (r memRecipes) IngredientsFor(ctx context.Context, ids []int64) (map[int64][]models.RecipeIngredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[int64][]models.RecipeIngredient{}
	for _, id := range ids {
		for _, l := range r.lines[id] {
			ing := r.ingredients[l.IngredientID]
			out[id] = append(out[id], models.RecipeIngredient{RecipeID: id, IngredientID: ing.ID, Name: ing.Name, MeasurementUnit: ing.MeasurementUnit, Amount: l.Amount})
		}
	}
	return out, nil
}

func (r memRecipes) ShortByAuthors(ctx context.Context, authorIDs []int64, limit int) (map[int64][]models.RecipeShort, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[int64][]models.RecipeShort{}
	for _, a := range authorIDs {
		var list []*models.Recipe
		for _, rec := range r.recipes {
			if rec.AuthorID == a {
				list = append(list, rec)
			}
		}
		sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
		for i, rec := range list {
			if limit > 0 && i >= limit {
				break
			}
			out[a] = append(out[a], models.RecipeShort{ID: rec.ID, AuthorID: a, Name: rec.Name, Image: rec.Image, CookingTime: rec.CookingTime})
		}
	}
	return out, nil
}

func (r memRecipes) CountByAuthors(ctx context.Context, authorIDs []int64) (map[int64]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[int64]int{}
	for _, rec := range r.recipes {
		out[rec.AuthorID]++
	}
	return out, nil
}

func (r memRecipes) ShoppingList(ctx context.Context, userID int64) ([]models.ShoppingListItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	type key struct{ name, unit string }
	sums := map[key]int64{}
	first := map[key]int64{}
	for pair := range r.pairs[relations.ShoppingCart.Table] {
		if pair[0] != userID {
			continue
		}
		for _, l := range r.lines[pair[1]] {
			ing := r.ingredients[l.IngredientID]
			k := key{ing.Name, ing.MeasurementUnit}
			sums[k] += int64(l.Amount)
			if f, ok := first[k]; !ok || ing.ID < f {
				first[k] = ing.ID
			}
		}
	}
	out := []models.ShoppingListItem{}
	for k, v := range sums {
		out = append(out, models.ShoppingListItem{Name: k.name, MeasurementUnit: k.unit, Amount: v})
	}
	sort.Slice(out, func(i, j int) bool {
		return first[key{out[i].Name, out[i].MeasurementUnit}] < first[key{out[j].Name, out[j].MeasurementUnit}]
	})
	return out, nil
}

// --- relations ---

type memRelations struct {
	*memStore
	rel relations.Relation
}

func (r memRelations) Add(ctx context.Context, owner, target int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rel == relations.Subscriptions && owner == target {
		return common.ErrorSelfReference
	}
	if r.pairs[r.rel.Table] == nil {
		r.pairs[r.rel.Table] = map[[2]int64]int64{}
	}
	k := [2]int64{owner, target}
	if _, ok := r.pairs[r.rel.Table][k]; ok {
		return common.ErrorAlreadyExists
	}
	r.pairs[r.rel.Table][k] = r.next()
	return nil
}

func (r memRelations) Remove(ctx context.Context, owner, target int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := [2]int64{owner, target}
	if _, ok := r.pairs[r.rel.Table][k]; !ok {
		return common.ErrorRelationNotFound
	}
	delete(r.pairs[r.rel.Table], k)
	return nil
}

func (r memRelations) Targets(ctx context.Context, owner int64, limit, offset int) ([]int64, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	type seq struct{ target, n int64 }
	var all []seq
	for k, n := range r.pairs[r.rel.Table] {
		if k[0] == owner {
			all = append(all, seq{k[1], n})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].n > all[j].n })
	ids := []int64{}
	for i, s := range all {
		if i >= offset && len(ids) < limit {
			ids = append(ids, s.target)
		}
	}
	return ids, len(all), nil
}

// --- manager and images ---

type fakeRepoManager struct{ *memStore }

func (m fakeRepoManager) RunMigrations(context.Context, *sql.DB) error   { return nil }
func (m fakeRepoManager) Users(db dbx.DBTX) users.Repository             { return memUsers{m.memStore} }
func (m fakeRepoManager) Tokens(db dbx.DBTX) tokens.Repository           { return memTokens{m.memStore} }
func (m fakeRepoManager) Tags(db dbx.DBTX) tags.Repository               { return memTags{m.memStore} }
func (m fakeRepoManager) Ingredients(db dbx.DBTX) ingredients.Repository { return memIngredients{m.memStore} }
func (m fakeRepoManager) Recipes(db dbx.DBTX) recipes.Repository         { return memRecipes{m.memStore} }
func (m fakeRepoManager) Relations(db dbx.DBTX, rel relations.Relation) relations.Repository {
	return memRelations{m.memStore, rel}
}

type fakeImages struct {
	saved   int
	saveErr error
	deleted []string
}

func (f *fakeImages) Save(ctx context.Context, img *images.Image) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.saved++
	return fmt.Sprintf("recipes/test-%d.%s", f.saved, img.Ext), nil
}

func (f *fakeImages) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	return "http://img/" + key, nil
}

func (f *fakeImages) Delete(ctx context.Context, key string) error {
	if key != "" {
		f.deleted = append(f.deleted, key)
	}
	return nil
}

var testImage = &images.Image{Data: []byte{1}, ContentType: "image/png", Ext: "png"}

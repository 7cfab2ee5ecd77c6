package services_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/anonto42/foodgram/backend/internal/apperrors"
	"github.com/anonto42/foodgram/backend/internal/dbtest"
	"github.com/anonto42/foodgram/backend/internal/images"
	"github.com/anonto42/foodgram/backend/internal/models"
	"github.com/anonto42/foodgram/backend/internal/repositories"
	"github.com/anonto42/foodgram/backend/internal/services"
	"github.com/anonto42/foodgram/backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	store     *repositories.Store
	fx        *dbtest.Fixture
	mediaRoot string
	recipes   *services.RecipeService
	favorites *services.CollectionService
	cart      *services.CollectionService
	shopping  *services.ShoppingListService
	follows   *services.FollowService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.New(t)
	fx := dbtest.Seed(t, db)
	store := repositories.NewStore(db)
	root := t.TempDir()
	storage, err := images.NewStorage(root)
	require.NoError(t, err)
	return &env{
		store:     store,
		fx:        fx,
		mediaRoot: root,
		recipes:   services.NewRecipeService(store, storage, "/media", logger.NewNop()),
		favorites: services.NewFavoriteService(store, "/media"),
		cart:      services.NewShoppingCartService(store, "/media"),
		shopping:  services.NewShoppingListService(store),
		follows:   services.NewFollowService(store, "/media"),
	}
}

func ptr[T any](v T) *T { return &v }

func draft(name string, cookingTime int, tags []uint, lines ...models.IngredientAmountRequest) services.RecipeDraft {
	return services.RecipeDraft{
		Name:        ptr(name),
		Text:        ptr("Mix and cook."),
		CookingTime: ptr(cookingTime),
		Tags:        ptr(tags),
		Ingredients: ptr(lines),
	}
}

func line(id uint, amount int) models.IngredientAmountRequest {
	return models.IngredientAmountRequest{ID: id, Amount: amount}
}

func dataURI(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func codeOf(t *testing.T, err error) apperrors.Code {
	t.Helper()
	require.Error(t, err)
	return apperrors.CodeOf(err)
}

func TestRecipeService_CreateStoresExactLines(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	got, err := e.recipes.Create(ctx, e.fx.Alice.ID, draft("Pancakes", 20, []uint{e.fx.Breakfast.ID},
		line(e.fx.Flour.ID, 2), line(e.fx.Eggs.ID, 3), line(e.fx.Milk.ID, 250)))
	require.NoError(t, err)

	assert.Equal(t, "Pancakes", got.Name)
	assert.Equal(t, "alice", got.Author.Username)
	assert.False(t, got.IsFavorited)
	require.Len(t, got.Tags, 1)
	assert.ElementsMatch(t, []models.IngredientAmountResponse{
		{ID: e.fx.Flour.ID, Name: "flour", MeasurementUnit: "cup", Amount: 2},
		{ID: e.fx.Eggs.ID, Name: "eggs", MeasurementUnit: "pcs", Amount: 3},
		{ID: e.fx.Milk.ID, Name: "milk", MeasurementUnit: "ml", Amount: 250},
	}, got.Ingredients)
}

func TestRecipeService_CookingTimeBounds(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.recipes.Create(ctx, e.fx.Alice.ID, draft("Slow", 301, []uint{e.fx.Dinner.ID}, line(e.fx.Eggs.ID, 1)))
	assert.Equal(t, apperrors.CodeValidation, codeOf(t, err))

	_, err = e.recipes.Create(ctx, e.fx.Alice.ID, draft("Fast", 0, []uint{e.fx.Dinner.ID}, line(e.fx.Eggs.ID, 1)))
	assert.Equal(t, apperrors.CodeValidation, codeOf(t, err))

	got, err := e.recipes.Create(ctx, e.fx.Alice.ID, draft("Slowest", 300, []uint{e.fx.Dinner.ID}, line(e.fx.Eggs.ID, 1)))
	require.NoError(t, err)
	assert.Equal(t, 300, got.CookingTime)
}

func TestRecipeService_DuplicateIngredientRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for _, amounts := range [][2]int{{1, 1}, {1, 5}, {7, 2}} {
		_, err := e.recipes.Create(ctx, e.fx.Alice.ID, draft("Dup", 10, []uint{e.fx.Dinner.ID},
			line(e.fx.Eggs.ID, amounts[0]), line(e.fx.Eggs.ID, amounts[1])))
		assert.Equal(t, apperrors.CodeValidation, codeOf(t, err))

		var appErr *apperrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Contains(t, appErr.Details, "ingredients")
	}

	_, count, err := e.store.Recipes.GetRecipes(ctx, repositories.RecipeFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRecipeService_InvalidDrafts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tags := []uint{e.fx.Dinner.ID}

	cases := map[string]struct {
		draft services.RecipeDraft
		code  apperrors.Code
	}{
		"unknown ingredient": {draft("X", 10, tags, line(999, 1)), apperrors.CodeNotFound},
		"unknown tag":        {draft("X", 10, []uint{999}, line(e.fx.Eggs.ID, 1)), apperrors.CodeNotFound},
		"duplicate tag":      {draft("X", 10, []uint{e.fx.Dinner.ID, e.fx.Dinner.ID}, line(e.fx.Eggs.ID, 1)), apperrors.CodeValidation},
		"zero amount":        {draft("X", 10, tags, line(e.fx.Eggs.ID, 0)), apperrors.CodeValidation},
		"no ingredients":     {draft("X", 10, tags), apperrors.CodeValidation},
		"no tags":            {draft("X", 10, []uint{}, line(e.fx.Eggs.ID, 1)), apperrors.CodeValidation},
		"missing name":       {services.RecipeDraft{Text: ptr("t"), CookingTime: ptr(5), Tags: &tags}, apperrors.CodeValidation},
		"bad image":          {withImage(draft("X", 10, tags, line(e.fx.Eggs.ID, 1)), "data:image/png;base64,aGVsbG8="), apperrors.CodeValidation},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.recipes.Create(ctx, e.fx.Alice.ID, tc.draft)
			assert.Equal(t, tc.code, codeOf(t, err))
		})
	}
}

func withImage(d services.RecipeDraft, uri string) services.RecipeDraft {
	d.Image = &uri
	return d
}

func TestRecipeService_Update(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.recipes.Create(ctx, e.fx.Alice.ID, draft("Soup", 30, []uint{e.fx.Dinner.ID},
		line(e.fx.Eggs.ID, 1), line(e.fx.Milk.ID, 100)))
	require.NoError(t, err)

	_, err = e.recipes.Update(ctx, e.fx.Bob.ID, created.ID, services.RecipeDraft{Name: ptr("Mine now")})
	assert.Equal(t, apperrors.CodeForbidden, codeOf(t, err))

	_, err = e.recipes.Update(ctx, e.fx.Alice.ID, 999, services.RecipeDraft{Name: ptr("Nope")})
	assert.Equal(t, apperrors.CodeNotFound, codeOf(t, err))

	updated, err := e.recipes.Update(ctx, e.fx.Alice.ID, created.ID, services.RecipeDraft{
		Name:        ptr("Better soup"),
		Ingredients: ptr([]models.IngredientAmountRequest{line(e.fx.Flour.ID, 4)}),
	})
	require.NoError(t, err)
	assert.Equal(t, "Better soup", updated.Name)
	assert.Equal(t, 30, updated.CookingTime, "untouched")
	require.Len(t, updated.Tags, 1, "untouched")
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, e.fx.Flour.ID, updated.Ingredients[0].ID)
	assert.Equal(t, 4, updated.Ingredients[0].Amount)

	updated, err = e.recipes.Update(ctx, e.fx.Alice.ID, created.ID, services.RecipeDraft{
		Tags: ptr([]uint{e.fx.Breakfast.ID, e.fx.Dinner.ID}),
	})
	require.NoError(t, err)
	assert.Len(t, updated.Tags, 2)

	_, err = e.recipes.Update(ctx, e.fx.Alice.ID, created.ID, services.RecipeDraft{CookingTime: ptr(301)})
	assert.Equal(t, apperrors.CodeValidation, codeOf(t, err))
}

func TestRecipeService_ImageLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.recipes.Create(ctx, e.fx.Alice.ID, withImage(
		draft("Toast", 5, []uint{e.fx.Breakfast.ID}, line(e.fx.Flour.ID, 1)), dataURI(t)))
	require.NoError(t, err)
	require.NotEmpty(t, created.Image)
	assert.NotEmpty(t, created.ImageBlurHash)

	stored, err := e.store.Recipes.GetRecipeByID(ctx, created.ID)
	require.NoError(t, err)
	path := filepath.Join(e.mediaRoot, filepath.FromSlash(stored.Image))
	_, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, "/media/"+stored.Image, created.Image)

	require.NoError(t, e.recipes.Delete(ctx, e.fx.Alice.ID, created.ID))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestRecipeService_ReplaceImage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.recipes.Create(ctx, e.fx.Alice.ID, withImage(
		draft("Toast", 5, []uint{e.fx.Breakfast.ID}, line(e.fx.Flour.ID, 1)), dataURI(t)))
	require.NoError(t, err)
	first, err := e.store.Recipes.GetRecipeByID(ctx, created.ID)
	require.NoError(t, err)
	firstPath := filepath.Join(e.mediaRoot, filepath.FromSlash(first.Image))

	updated, err := e.recipes.Update(ctx, e.fx.Alice.ID, created.ID, services.RecipeDraft{Image: ptr(dataURI(t))})
	require.NoError(t, err)
	assert.NotEqual(t, created.Image, updated.Image)

	second, err := e.store.Recipes.GetRecipeByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.Image, second.Image)
	assert.NotEmpty(t, second.ImageBlurHash)
	assert.Equal(t, "Toast", second.Name)
	_, err = os.Stat(firstPath)
	assert.True(t, os.IsNotExist(err), "previous image removed")
	secondPath := filepath.Join(e.mediaRoot, filepath.FromSlash(second.Image))
	_, err = os.Stat(secondPath)
	require.NoError(t, err)

	raw, err := images.DecodeDataURI(dataURI(t))
	require.NoError(t, err)
	uploaded, err := e.recipes.SetImage(ctx, e.fx.Alice.ID, created.ID, raw)
	require.NoError(t, err)
	assert.NotEmpty(t, uploaded.ImageBlurHash)

	third, err := e.store.Recipes.GetRecipeByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, second.Image, third.Image)
	assert.NotEmpty(t, third.ImageBlurHash)
	_, err = os.Stat(secondPath)
	assert.True(t, os.IsNotExist(err))

	_, err = e.recipes.SetImage(ctx, e.fx.Bob.ID, created.ID, raw)
	assert.Equal(t, apperrors.CodeForbidden, codeOf(t, err))
}

func TestRecipeService_DeleteAuthor(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.recipes.Create(ctx, e.fx.Alice.ID, withImage(
		draft("Toast", 5, []uint{e.fx.Breakfast.ID}, line(e.fx.Flour.ID, 1)), dataURI(t)))
	require.NoError(t, err)
	kept, err := e.recipes.Create(ctx, e.fx.Bob.ID, withImage(
		draft("Porridge", 10, []uint{e.fx.Breakfast.ID}, line(e.fx.Milk.ID, 200)), dataURI(t)))
	require.NoError(t, err)

	stored, err := e.store.Recipes.GetRecipeByID(ctx, created.ID)
	require.NoError(t, err)
	alicePath := filepath.Join(e.mediaRoot, filepath.FromSlash(stored.Image))
	stored, err = e.store.Recipes.GetRecipeByID(ctx, kept.ID)
	require.NoError(t, err)
	bobPath := filepath.Join(e.mediaRoot, filepath.FromSlash(stored.Image))

	require.NoError(t, e.recipes.DeleteAuthor(ctx, e.fx.Alice.ID))

	_, err = e.store.Users.GetUserByID(ctx, e.fx.Alice.ID)
	assert.Equal(t, apperrors.CodeNotFound, codeOf(t, err))
	_, err = e.store.Recipes.GetRecipeByID(ctx, created.ID)
	assert.Equal(t, apperrors.CodeNotFound, codeOf(t, err))
	_, err = os.Stat(alicePath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(bobPath)
	assert.NoError(t, err)

	assert.Equal(t, apperrors.CodeNotFound, codeOf(t, e.recipes.DeleteAuthor(ctx, e.fx.Alice.ID)))
}

func TestRecipeService_DeleteOnlyByAuthor(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	created, err := e.recipes.Create(ctx, e.fx.Alice.ID, draft("Toast", 5, []uint{e.fx.Breakfast.ID}, line(e.fx.Flour.ID, 1)))
	require.NoError(t, err)

	assert.Equal(t, apperrors.CodeForbidden, codeOf(t, e.recipes.Delete(ctx, e.fx.Bob.ID, created.ID)))
	require.NoError(t, e.recipes.Delete(ctx, e.fx.Alice.ID, created.ID))
	assert.Equal(t, apperrors.CodeNotFound, codeOf(t, e.recipes.Delete(ctx, e.fx.Alice.ID, created.ID)))
}

func TestRecipeService_ListViewerFlags(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	r1, err := e.recipes.Create(ctx, e.fx.Alice.ID, draft("R1", 5, []uint{e.fx.Breakfast.ID}, line(e.fx.Eggs.ID, 2)))
	require.NoError(t, err)
	r2, err := e.recipes.Create(ctx, e.fx.Alice.ID, draft("R2", 5, []uint{e.fx.Dinner.ID}, line(e.fx.Flour.ID, 1)))
	require.NoError(t, err)

	_, err = e.favorites.Add(ctx, e.fx.Bob.ID, r1.ID)
	require.NoError(t, err)
	_, err = e.cart.Add(ctx, e.fx.Bob.ID, r2.ID)
	require.NoError(t, err)
	_, err = e.follows.Follow(ctx, e.fx.Bob.ID, e.fx.Alice.ID, 0)
	require.NoError(t, err)

	list, total, err := e.recipes.List(ctx, e.fx.Bob.ID, services.RecipeQuery{}, services.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	byID := map[uint]models.RecipeResponse{}
	for _, r := range list {
		byID[r.ID] = r
		assert.True(t, r.Author.IsSubscribed)
	}
	assert.True(t, byID[r1.ID].IsFavorited)
	assert.False(t, byID[r1.ID].IsInShoppingCart)
	assert.True(t, byID[r2.ID].IsInShoppingCart)

	favs, total, err := e.recipes.List(ctx, e.fx.Bob.ID, services.RecipeQuery{FavoritedOnly: true}, services.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, r1.ID, favs[0].ID)

	// Membership filters are ignored for anonymous viewers.
	anon, total, err := e.recipes.List(ctx, 0, services.RecipeQuery{FavoritedOnly: true}, services.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, r := range anon {
		assert.False(t, r.IsFavorited)
		assert.False(t, r.Author.IsSubscribed)
	}
}

func TestCollectionService_Toggle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	r, err := e.recipes.Create(ctx, e.fx.Alice.ID, draft("R", 5, []uint{e.fx.Breakfast.ID}, line(e.fx.Eggs.ID, 2)))
	require.NoError(t, err)

	for _, svc := range []*services.CollectionService{e.favorites, e.cart} {
		short, err := svc.Add(ctx, e.fx.Bob.ID, r.ID)
		require.NoError(t, err)
		assert.Equal(t, r.ID, short.ID)
		assert.Equal(t, "R", short.Name)

		_, err = svc.Add(ctx, e.fx.Bob.ID, r.ID)
		assert.Equal(t, apperrors.CodeAlreadyExists, codeOf(t, err))

		require.NoError(t, svc.Remove(ctx, e.fx.Bob.ID, r.ID))
		_, err = svc.Add(ctx, e.fx.Bob.ID, r.ID)
		require.NoError(t, err, "add, remove, add succeeds")

		require.NoError(t, svc.Remove(ctx, e.fx.Bob.ID, r.ID))
		assert.Equal(t, apperrors.CodeConflict, codeOf(t, svc.Remove(ctx, e.fx.Bob.ID, r.ID)))

		_, err = svc.Add(ctx, e.fx.Bob.ID, 999)
		assert.Equal(t, apperrors.CodeNotFound, codeOf(t, err))
	}
}

func TestShoppingListService_Aggregate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	r1, err := e.recipes.Create(ctx, e.fx.Alice.ID, draft("R1", 5, []uint{e.fx.Breakfast.ID}, line(e.fx.Eggs.ID, 2)))
	require.NoError(t, err)
	r2, err := e.recipes.Create(ctx, e.fx.Alice.ID, draft("R2", 5, []uint{e.fx.Breakfast.ID},
		line(e.fx.Eggs.ID, 3), line(e.fx.Flour.ID, 1)))
	require.NoError(t, err)

	_, err = e.shopping.Aggregate(ctx, e.fx.Bob.ID)
	assert.ErrorIs(t, err, services.ErrShoppingListEmpty)
	assert.Equal(t, apperrors.CodeEmpty, codeOf(t, err))

	want := []models.ShoppingItem{
		{Name: "eggs", MeasurementUnit: "pcs", Total: 5},
		{Name: "flour", MeasurementUnit: "cup", Total: 1},
	}

	// Bob adds R1 then R2, Alice adds R2 then R1.
	for _, order := range []struct {
		user uint
		ids  []uint
	}{{e.fx.Bob.ID, []uint{r1.ID, r2.ID}}, {e.fx.Alice.ID, []uint{r2.ID, r1.ID}}} {
		for _, id := range order.ids {
			_, err := e.cart.Add(ctx, order.user, id)
			require.NoError(t, err)
		}
		items, err := e.shopping.Aggregate(ctx, order.user)
		require.NoError(t, err)
		assert.Equal(t, want, items)
	}

	assert.Equal(t, "eggs (pcs) — 5\nflour (cup) — 1\n", services.RenderText(want))
}

func TestFollowService(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := e.recipes.Create(ctx, e.fx.Bob.ID, draft("Bob's", 5, []uint{e.fx.Dinner.ID}, line(e.fx.Eggs.ID, 1)))
		require.NoError(t, err)
	}

	for _, u := range []uint{e.fx.Alice.ID, e.fx.Bob.ID} {
		_, err := e.follows.Follow(ctx, u, u, 0)
		assert.Equal(t, apperrors.CodeValidation, codeOf(t, err))
	}

	sub, err := e.follows.Follow(ctx, e.fx.Alice.ID, e.fx.Bob.ID, 2)
	require.NoError(t, err)
	assert.True(t, sub.IsSubscribed)
	assert.EqualValues(t, 3, sub.RecipesCount)
	assert.Len(t, sub.Recipes, 2)

	_, err = e.follows.Follow(ctx, e.fx.Alice.ID, e.fx.Bob.ID, 0)
	assert.Equal(t, apperrors.CodeAlreadyExists, codeOf(t, err))

	_, err = e.follows.Follow(ctx, e.fx.Alice.ID, 999, 0)
	assert.Equal(t, apperrors.CodeNotFound, codeOf(t, err))

	subs, total, err := e.follows.Subscriptions(ctx, e.fx.Alice.ID, services.Page{Number: 1, Size: 10}, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, subs, 1)
	assert.Equal(t, "bob", subs[0].Username)
	assert.Len(t, subs[0].Recipes, 3)

	require.NoError(t, e.follows.Unfollow(ctx, e.fx.Alice.ID, e.fx.Bob.ID))
	assert.Equal(t, apperrors.CodeConflict, codeOf(t, e.follows.Unfollow(ctx, e.fx.Alice.ID, e.fx.Bob.ID)))
}

func TestPageOffset(t *testing.T) {
	assert.Equal(t, 0, services.Page{Number: 1, Size: 6}.Offset())
	assert.Equal(t, 12, services.Page{Number: 3, Size: 6}.Offset())
	assert.Equal(t, 0, services.Page{Number: 0, Size: 6}.Offset())
}

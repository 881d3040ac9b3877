package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Sayless-Digital/Success-Family-V4-sub002/internal/models"
)

// In-memory repository fakes. Mutexes matter because the handlers maintain
// denormalized counts and publish events from goroutines.

type fakeBoostRepo struct {
	mu     sync.Mutex
	boosts []*models.Boost
}

func (r *fakeBoostRepo) CreateBoost(boost *models.Boost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if boost.CreatedAt.IsZero() {
		boost.CreatedAt = time.Now()
	}
	r.boosts = append(r.boosts, boost)
	return nil
}

func (r *fakeBoostRepo) DeleteBoost(postID string, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, b := range r.boosts {
		if b.PostID == postID && b.UserID == userID {
			r.boosts = append(r.boosts[:i], r.boosts[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("boost not found")
}

func (r *fakeBoostRepo) GetBoost(postID string, userID uint) (*models.Boost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.boosts {
		if b.PostID == postID && b.UserID == userID {
			return b, nil
		}
	}
	return nil, fmt.Errorf("boost not found")
}

func (r *fakeBoostRepo) GetBoostCountByPostID(postID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, b := range r.boosts {
		if b.PostID == postID {
			count++
		}
	}
	return count, nil
}

func (r *fakeBoostRepo) HasUserBoostedPost(postID string, userID uint) (bool, error) {
	_, err := r.GetBoost(postID, userID)
	return err == nil, nil
}

func (r *fakeBoostRepo) CanUnboost(postID string, userID uint, now time.Time) (bool, error) {
	b, err := r.GetBoost(postID, userID)
	if err != nil {
		return false, nil
	}
	return b.WithinUnboostWindow(now), nil
}

func (r *fakeBoostRepo) GetBoostsByUser(userID uint) ([]models.Boost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Boost
	// Most recent boost first, matching the SQL ordering.
	for i := len(r.boosts) - 1; i >= 0; i-- {
		if r.boosts[i].UserID == userID {
			out = append(out, *r.boosts[i])
		}
	}
	return out, nil
}

func (r *fakeBoostRepo) GetBoostedPostIDs(userID uint, postIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, pid := range postIDs {
		boosted, _ := r.HasUserBoostedPost(pid, userID)
		if boosted {
			out[pid] = true
		}
	}
	return out, nil
}

type fakePostRepo struct {
	mu    sync.Mutex
	posts map[string]*models.Post
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[string]*models.Post)}
}

func (r *fakePostRepo) add(authorUID string, boostsCount int64) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := &models.Post{ID: primitive.NewObjectID(), UserID: authorUID, Content: "hello", BoostsCount: boostsCount}
	r.posts[p.ID.Hex()] = p
	return p.ID.Hex()
}

func (r *fakePostRepo) CreatePost(ctx context.Context, post *models.Post) error { return nil }

func (r *fakePostRepo) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, fmt.Errorf("post not found")
	}
	cp := *p
	return &cp, nil
}

func (r *fakePostRepo) GetPostsByIDs(ctx context.Context, ids []string) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Post
	for _, id := range ids {
		if p, ok := r.posts[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePostRepo) GetPostsByUserID(ctx context.Context, userID string, skip, limit int64) ([]models.Post, error) {
	return nil, nil
}

func (r *fakePostRepo) GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, error) {
	return nil, nil
}

func (r *fakePostRepo) GetBoostedPostsByAuthor(ctx context.Context, userID string) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Post
	for _, p := range r.posts {
		if p.UserID == userID && p.BoostsCount > 0 {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePostRepo) UpdatePost(ctx context.Context, id string, post *models.Post) error { return nil }
func (r *fakePostRepo) DeletePost(ctx context.Context, id string) error                    { return nil }

func (r *fakePostRepo) IncrementBoostsCount(ctx context.Context, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.posts[postID]; ok {
		p.BoostsCount++
	}
	return nil
}

func (r *fakePostRepo) DecrementBoostsCount(ctx context.Context, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.posts[postID]; ok && p.BoostsCount > 0 {
		p.BoostsCount--
	}
	return nil
}

func (r *fakePostRepo) SetBoostsCount(ctx context.Context, postID string, count int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.posts[postID]; ok {
		p.BoostsCount = count
	}
	return nil
}

type fakeUserRepo struct {
	users map[uint]*models.User
}

func (r *fakeUserRepo) CreateUser(user *models.User) error { return nil }

func (r *fakeUserRepo) GetUserByID(id uint) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	return u, nil
}

func (r *fakeUserRepo) GetUserByEmail(email string) (*models.User, error) {
	return nil, fmt.Errorf("user not found")
}

func (r *fakeUserRepo) GetUserByFirebaseUID(firebaseUID string) (*models.User, error) {
	for _, u := range r.users {
		if u.FirebaseUID == firebaseUID {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user not found")
}

func (r *fakeUserRepo) GetUsers() ([]models.User, error)              { return nil, nil }
func (r *fakeUserRepo) UpdateUser(user *models.User) error            { return nil }
func (r *fakeUserRepo) DeleteUser(id uint) error                      { return nil }
func (r *fakeUserRepo) SearchUsers(query string) ([]models.User, error) { return nil, nil }

type fakeWalletRepo struct {
	mu        sync.Mutex
	wallet    int64
	earnings  int64
	debits    int
	refunds   int
	failDebit bool
}

func (r *fakeWalletRepo) GetBalance(userID uint) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wallet, r.earnings, nil
}

func (r *fakeWalletRepo) DebitBoost(viewerID uint, authorFirebaseUID string, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDebit {
		return fmt.Errorf("ledger write failed")
	}
	r.debits++
	if r.wallet > 0 {
		r.wallet--
	} else {
		r.earnings--
	}
	return nil
}

func (r *fakeWalletRepo) RefundBoost(viewerID uint, authorFirebaseUID string, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refunds++
	r.wallet++
	return nil
}

func (r *fakeWalletRepo) GetLedgerEntries(userID uint, limit int) ([]models.LedgerEntry, error) {
	return nil, nil
}

type fakePublisher struct {
	mu           sync.Mutex
	boostInserts []string
	boostDeletes []string
	saveInserts  []string
	saveDeletes  []string
}

func (p *fakePublisher) PublishBoostInsert(ctx context.Context, postID string, userID uint) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.boostInserts = append(p.boostInserts, postID)
	return nil
}

func (p *fakePublisher) PublishBoostDelete(ctx context.Context, postID string, userID uint) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.boostDeletes = append(p.boostDeletes, postID)
	return nil
}

func (p *fakePublisher) PublishSaveInsert(ctx context.Context, postID string, userID uint) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saveInserts = append(p.saveInserts, postID)
	return nil
}

func (p *fakePublisher) PublishSaveDelete(ctx context.Context, postID string, userID uint) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saveDeletes = append(p.saveDeletes, postID)
	return nil
}

func (p *fakePublisher) countBoostInserts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.boostInserts)
}

func (p *fakePublisher) countBoostDeletes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.boostDeletes)
}

type boostHarness struct {
	handler   *BoostHandler
	boosts    *fakeBoostRepo
	posts     *fakePostRepo
	users     *fakeUserRepo
	wallet    *fakeWalletRepo
	publisher *fakePublisher
	echo      *echo.Echo
}

const (
	viewerID  = uint(7)
	viewerUID = "viewer-uid"
	authorUID = "author-uid"
)

func newBoostHarness() *boostHarness {
	boosts := &fakeBoostRepo{}
	posts := newFakePostRepo()
	users := &fakeUserRepo{users: map[uint]*models.User{
		7: {ID: 7, Name: "Viewer", FirebaseUID: viewerUID},
		8: {ID: 8, Name: "Author", FirebaseUID: authorUID},
	}}
	wallet := &fakeWalletRepo{wallet: 5}
	publisher := &fakePublisher{}
	return &boostHarness{
		handler:   NewBoostHandler(boosts, posts, users, wallet, publisher),
		boosts:    boosts,
		posts:     posts,
		users:     users,
		wallet:    wallet,
		publisher: publisher,
		echo:      echo.New(),
	}
}

// request builds an authenticated echo context the way the JWT middleware
// leaves it.
func (h *boostHarness) request(method, path string, params map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	c := h.echo.NewContext(req, rec)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	c.Set("user", &models.JwtCustomClaims{UserID: viewerID, FirebaseUID: viewerUID})
	return c, rec
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he.Code
}

func TestBoostPost(t *testing.T) {
	h := newBoostHarness()
	postID := h.posts.add(authorUID, 0)

	c, rec := h.request(http.MethodPost, "/posts/"+postID+"/boost", map[string]string{"post_id": postID})
	require.NoError(t, h.handler.BoostPost(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	boosted, _ := h.boosts.HasUserBoostedPost(postID, viewerID)
	assert.True(t, boosted)

	h.wallet.mu.Lock()
	assert.Equal(t, 1, h.wallet.debits)
	assert.Equal(t, int64(4), h.wallet.wallet)
	h.wallet.mu.Unlock()

	// Count maintenance and the change feed run asynchronously.
	require.Eventually(t, func() bool {
		p, _ := h.posts.GetPostByID(context.Background(), postID)
		return p.BoostsCount == 1 && h.publisher.countBoostInserts() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestBoostPostRequiresAuth(t *testing.T) {
	h := newBoostHarness()
	postID := h.posts.add(authorUID, 0)

	req := httptest.NewRequest(http.MethodPost, "/posts/"+postID+"/boost", nil)
	c := h.echo.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("post_id")
	c.SetParamValues(postID)

	err := h.handler.BoostPost(c)
	assert.Equal(t, http.StatusUnauthorized, httpStatus(t, err))
}

func TestBoostPostRejectsOwnPost(t *testing.T) {
	h := newBoostHarness()
	postID := h.posts.add(viewerUID, 0)

	c, _ := h.request(http.MethodPost, "/posts/"+postID+"/boost", map[string]string{"post_id": postID})
	err := h.handler.BoostPost(c)
	assert.Equal(t, http.StatusForbidden, httpStatus(t, err))
	assert.Zero(t, h.wallet.debits)
}

func TestBoostPostRejectsDoubleBoost(t *testing.T) {
	h := newBoostHarness()
	postID := h.posts.add(authorUID, 0)
	require.NoError(t, h.boosts.CreateBoost(&models.Boost{PostID: postID, UserID: viewerID}))

	c, _ := h.request(http.MethodPost, "/posts/"+postID+"/boost", map[string]string{"post_id": postID})
	err := h.handler.BoostPost(c)
	assert.Equal(t, http.StatusConflict, httpStatus(t, err))
}

func TestBoostPostRejectsInsufficientBalance(t *testing.T) {
	h := newBoostHarness()
	h.wallet.wallet = 0
	h.wallet.earnings = 0
	postID := h.posts.add(authorUID, 0)

	c, _ := h.request(http.MethodPost, "/posts/"+postID+"/boost", map[string]string{"post_id": postID})
	err := h.handler.BoostPost(c)
	assert.Equal(t, http.StatusPaymentRequired, httpStatus(t, err))
}

func TestBoostPostSpendsEarnings(t *testing.T) {
	h := newBoostHarness()
	h.wallet.wallet = 0
	h.wallet.earnings = 2
	postID := h.posts.add(authorUID, 0)

	c, rec := h.request(http.MethodPost, "/posts/"+postID+"/boost", map[string]string{"post_id": postID})
	require.NoError(t, h.handler.BoostPost(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestBoostPostVoidsBoostWhenDebitFails(t *testing.T) {
	h := newBoostHarness()
	h.wallet.failDebit = true
	postID := h.posts.add(authorUID, 0)

	c, _ := h.request(http.MethodPost, "/posts/"+postID+"/boost", map[string]string{"post_id": postID})
	err := h.handler.BoostPost(c)
	assert.Equal(t, http.StatusInternalServerError, httpStatus(t, err))

	boosted, _ := h.boosts.HasUserBoostedPost(postID, viewerID)
	assert.False(t, boosted, "a boost whose debit failed must not persist")
}

func TestBoostPostUnknownPost(t *testing.T) {
	h := newBoostHarness()
	c, _ := h.request(http.MethodPost, "/posts/x/boost", map[string]string{"post_id": primitive.NewObjectID().Hex()})
	err := h.handler.BoostPost(c)
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
}

func TestUnboostPost(t *testing.T) {
	h := newBoostHarness()
	postID := h.posts.add(authorUID, 1)
	require.NoError(t, h.boosts.CreateBoost(&models.Boost{PostID: postID, UserID: viewerID}))

	c, rec := h.request(http.MethodDelete, "/posts/"+postID+"/boost", map[string]string{"post_id": postID})
	require.NoError(t, h.handler.UnboostPost(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	boosted, _ := h.boosts.HasUserBoostedPost(postID, viewerID)
	assert.False(t, boosted)
	assert.Equal(t, 1, h.wallet.refunds)

	require.Eventually(t, func() bool {
		p, _ := h.posts.GetPostByID(context.Background(), postID)
		return p.BoostsCount == 0 && h.publisher.countBoostDeletes() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestUnboostPostRejectsExpiredWindow(t *testing.T) {
	h := newBoostHarness()
	postID := h.posts.add(authorUID, 1)
	stale := &models.Boost{PostID: postID, UserID: viewerID}
	stale.CreatedAt = time.Now().Add(-2 * models.UnboostWindow)
	require.NoError(t, h.boosts.CreateBoost(stale))

	c, _ := h.request(http.MethodDelete, "/posts/"+postID+"/boost", map[string]string{"post_id": postID})
	err := h.handler.UnboostPost(c)
	assert.Equal(t, http.StatusConflict, httpStatus(t, err))

	boosted, _ := h.boosts.HasUserBoostedPost(postID, viewerID)
	assert.True(t, boosted, "an expired boost stays in place")
	assert.Zero(t, h.wallet.refunds)
}

func TestUnboostPostWithoutBoost(t *testing.T) {
	h := newBoostHarness()
	postID := h.posts.add(authorUID, 0)

	c, _ := h.request(http.MethodDelete, "/posts/"+postID+"/boost", map[string]string{"post_id": postID})
	err := h.handler.UnboostPost(c)
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
}

func TestGetUserBoostStatusForPost(t *testing.T) {
	h := newBoostHarness()
	postID := h.posts.add(authorUID, 1)
	require.NoError(t, h.boosts.CreateBoost(&models.Boost{PostID: postID, UserID: viewerID}))

	c, rec := h.request(http.MethodGet, "/posts/"+postID+"/boosts/status", map[string]string{"post_id": postID})
	require.NoError(t, h.handler.GetUserBoostStatusForPost(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"has_boosted":true`)
	assert.Contains(t, rec.Body.String(), `"can_unboost":true`)
}

func TestGetBoostedPostsOrdersByRecency(t *testing.T) {
	h := newBoostHarness()
	first := h.posts.add(authorUID, 1)
	second := h.posts.add(authorUID, 1)
	require.NoError(t, h.boosts.CreateBoost(&models.Boost{PostID: first, UserID: viewerID}))
	require.NoError(t, h.boosts.CreateBoost(&models.Boost{PostID: second, UserID: viewerID}))

	c, rec := h.request(http.MethodGet, "/posts/boosted", nil)
	require.NoError(t, h.handler.GetBoostedPosts(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	// The most recently boosted post comes first, regardless of post age.
	body := rec.Body.String()
	assert.Less(t, strings.Index(body, second), strings.Index(body, first))
}

func TestGetReceivedBoosts(t *testing.T) {
	h := newBoostHarness()
	h.posts.add(authorUID, 3)
	h.posts.add(authorUID, 0)

	c, rec := h.request(http.MethodGet, "/users/8/received-boosts", map[string]string{"user_id": "8"})
	require.NoError(t, h.handler.GetReceivedBoosts(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, strings.Count(rec.Body.String(), `"user_id":"`+authorUID+`"`))
}

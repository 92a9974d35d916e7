package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"truthordare/middleware"
	"truthordare/models"
	"truthordare/repository"
	"truthordare/repository/mocks"
	"truthordare/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser stands in for the auth middleware: the X-Test-User header becomes
// the session user.
func asUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			c.Set(middleware.ContextUserID, id)
			c.Set(middleware.ContextSessionID, "s-"+id)
		}
		c.Next()
	}
}

type testEnv struct {
	rooms      *mocks.RoomRepository
	members    *mocks.MemberRepository
	categories *mocks.CategoryRepository
	questions  *mocks.QuestionRepository
	users      *mocks.UserRepository
	sessions   *mocks.SessionRepository
	router     *gin.Engine
}

func newTestEnv() *testEnv {
	env := &testEnv{
		rooms:      new(mocks.RoomRepository),
		members:    new(mocks.MemberRepository),
		categories: new(mocks.CategoryRepository),
		questions:  new(mocks.QuestionRepository),
		users:      new(mocks.UserRepository),
		sessions:   new(mocks.SessionRepository),
	}

	roomHandler := NewRoomHandler(services.NewRoomService(env.rooms, env.members, env.categories, env.users, nil, 15*time.Minute))
	memberHandler := NewMemberHandler(services.NewMemberService(env.rooms, env.members, env.users, nil, 15*time.Minute, false))
	categoryHandler := NewCategoryHandler(services.NewCategoryService(env.categories))
	questionHandler := NewQuestionHandler(services.NewQuestionService(env.questions, env.categories))
	authHandler := NewAuthHandler(services.NewAuthService(env.users, env.sessions, nil, "secret", time.Hour), false)

	r := gin.New()
	r.Use(asUser())
	r.POST("/rooms", roomHandler.CreateRoom)
	r.GET("/rooms", roomHandler.GetAllRooms)
	r.GET("/rooms/get-room-by-id/:id", roomHandler.GetRoomByID)
	r.GET("/rooms/user/:userId", roomHandler.GetRoomsByUser)
	r.DELETE("/rooms/:id", roomHandler.DeleteRoom)
	r.POST("/room-member/join-room/:roomId", memberHandler.JoinPublicRoom)
	r.POST("/room-member/join-private", memberHandler.JoinPrivateRoom)
	r.POST("/room-member/leave-room/:roomId", memberHandler.LeaveRoom)
	r.DELETE("/room-member/:id/members/:memberId", memberHandler.RemoveMember)
	r.GET("/room-member/get-room-members/:roomId", memberHandler.GetRoomMembers)
	r.POST("/categories", categoryHandler.CreateCategory)
	r.GET("/categories", categoryHandler.GetCategories)
	r.GET("/categories/get-by-id/:id", categoryHandler.GetCategoryByID)
	r.GET("/questions/all", questionHandler.GetAllQuestions)
	r.POST("/auth/sign-up/email", authHandler.SignUp)
	r.GET("/auth/get-session", authHandler.GetSession)
	env.router = r
	return env
}

func (env *testEnv) do(method, path, userID, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

var (
	classic = &models.Category{ID: "cat-1", Name: "Classic", Slug: "classic"}
	alice   = &models.User{ID: "u1", Name: "Alice", Email: "alice@example.com"}
	bob     = &models.User{ID: "u2", Name: "Bob", Email: "bob@example.com"}
)

func TestCreateRoom(t *testing.T) {
	env := newTestEnv()
	env.categories.On("FindBySlug", mock.Anything, "classic").Return(classic, nil)
	env.users.On("FindByID", mock.Anything, "u1").Return(alice, nil)
	env.rooms.On("NameExists", mock.Anything, "game night", "classic", "").Return(false, nil)
	env.rooms.On("CreateWithHost", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	w := env.do(http.MethodPost, "/rooms", "u1", `{"name":"Game Night","isPublic":true,"limit":4,"categorySlug":"classic"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Room created successfully", body["message"])
	data := body["data"].(map[string]interface{})
	room := data["room"].(map[string]interface{})
	assert.Equal(t, "game night", room["name"])
	assert.EqualValues(t, 4, room["limit"])
	assert.Equal(t, "u1", room["createdBy"])
	assert.NotContains(t, data, "joinCode")
}

func TestCreateRoom_PrivateReturnsJoinCode(t *testing.T) {
	env := newTestEnv()
	env.categories.On("FindBySlug", mock.Anything, "classic").Return(classic, nil)
	env.users.On("FindByID", mock.Anything, "u1").Return(alice, nil)
	env.rooms.On("NameExists", mock.Anything, "secret", "classic", "").Return(false, nil)
	env.rooms.On("JoinCodeExists", mock.Anything, mock.Anything).Return(false, nil)
	env.rooms.On("CreateWithHost", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	w := env.do(http.MethodPost, "/rooms", "u1", `{"name":"secret","isPublic":false,"categorySlug":"classic","createdBy":"u1"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]interface{})
	code, ok := data["joinCode"].(string)
	require.True(t, ok)
	assert.True(t, services.IsValidJoinCode(code))
}

func TestCreateRoom_CreatedByMustMatchSession(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodPost, "/rooms", "u1", `{"name":"abc","categorySlug":"classic","createdBy":"u2"}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, services.CodeUnauthorized, decode(t, w)["code"])
	env.categories.AssertNotCalled(t, "FindBySlug", mock.Anything, mock.Anything)
}

func TestCreateRoom_ValidationEnvelope(t *testing.T) {
	env := newTestEnv()

	cases := map[string]string{
		"empty body":   "",
		"bad json":     `{"name":`,
		"wrong type":   `{"name":"abc","limit":"four","categorySlug":"classic"}`,
		"out of range": `{"name":"abc","limit":9,"categorySlug":"classic"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/rooms", "u1", body)

			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			resp := decode(t, w)
			assert.Equal(t, services.CodeValidation, resp["code"])
			assert.Equal(t, "Validation failed", resp["error"])
			errs := resp["details"].(map[string]interface{})["errors"].([]interface{})
			assert.NotEmpty(t, errs)
		})
	}
}

func TestCreateRoom_RequiresSession(t *testing.T) {
	env := newTestEnv()
	w := env.do(http.MethodPost, "/rooms", "", `{"name":"abc","categorySlug":"classic"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetAllRooms(t *testing.T) {
	env := newTestEnv()
	env.rooms.On("ListActive", mock.Anything, mock.MatchedBy(func(f repository.RoomFilter) bool {
		return f.Offset == 5 && f.Limit == 5 && f.IsPublic != nil && *f.IsPublic && f.CategorySlug == "classic"
	})).Return([]models.RoomView{
		{Room: models.Room{ID: "r1", Name: "abc", IsPublic: true, CreatedAt: time.Now()}},
	}, int64(6), nil)

	w := env.do(http.MethodGet, "/rooms?page=2&limit=5&isPublic=true&categorySlug=classic", "u1", "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Len(t, body["data"], 1)
	pagination := body["pagination"].(map[string]interface{})
	assert.EqualValues(t, 2, pagination["page"])
	assert.EqualValues(t, 2, pagination["totalPages"])
	assert.Equal(t, false, pagination["hasNext"])
}

func TestGetAllRooms_BadQuery(t *testing.T) {
	env := newTestEnv()
	for _, q := range []string{"page=0", "limit=abc", "isPublic=maybe"} {
		w := env.do(http.MethodGet, "/rooms?"+q, "u1", "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestGetRoomByID_NotFound(t *testing.T) {
	env := newTestEnv()
	env.rooms.On("FindView", mock.Anything, "nope").Return(nil, repository.ErrNotFound)

	w := env.do(http.MethodGet, "/rooms/get-room-by-id/nope", "", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, services.CodeNotFound, body["code"])
	assert.Equal(t, map[string]interface{}{"roomId": "nope"}, body["details"])
}

func TestGetRoomsByUser_OnlySelf(t *testing.T) {
	env := newTestEnv()
	env.rooms.On("ListByCreator", mock.Anything, "u1").Return([]models.RoomView{}, nil)

	w := env.do(http.MethodGet, "/rooms/user/u1", "u1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/rooms/user/u2", "u1", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteRoom_NotCreator(t *testing.T) {
	env := newTestEnv()
	env.rooms.On("FindByID", mock.Anything, "r1").Return(&models.Room{ID: "r1", CreatedBy: "u1"}, nil)

	w := env.do(http.MethodDelete, "/rooms/r1", "u2", "")

	assert.Equal(t, http.StatusForbidden, w.Code)
	env.rooms.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestJoinRooms(t *testing.T) {
	env := newTestEnv()
	public := &models.Room{ID: "r1", IsPublic: true, Limit: 4, CreatedBy: "u1", CreatedAt: time.Now()}
	code := "aB3dE"
	private := &models.Room{ID: "r2", IsPublic: false, JoinCode: &code, Limit: 4, CreatedBy: "u1", CreatedAt: time.Now()}
	env.rooms.On("FindByID", mock.Anything, "r1").Return(public, nil)
	env.rooms.On("FindByJoinCode", mock.Anything, "aB3dE").Return(private, nil)
	env.users.On("FindByID", mock.Anything, "u2").Return(bob, nil)
	env.members.On("FindByRoomAndUser", mock.Anything, mock.Anything, "u2").Return(nil, repository.ErrNotFound)
	env.members.On("Create", mock.Anything, mock.Anything).Return(nil)

	w := env.do(http.MethodPost, "/room-member/join-room/r1", "u2", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Successfully joined the room", decode(t, w)["message"])

	w = env.do(http.MethodPost, "/room-member/join-private", "u2", `{"joinCode":"aB3dE","userId":"u2"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "r2", data["member"].(map[string]interface{})["roomId"])

	w = env.do(http.MethodPost, "/room-member/join-room/r1", "u2", `{"userId":"u3"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestJoinPrivateRoom_MalformedCodeNotFound(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodPost, "/room-member/join-private", "u2", `{"joinCode":"not-a-code"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, services.CodeNotFound, decode(t, w)["code"])
	env.rooms.AssertNotCalled(t, "FindByJoinCode", mock.Anything, mock.Anything)
}

func TestLeaveRoom_HostCannotLeave(t *testing.T) {
	env := newTestEnv()
	env.rooms.On("FindByID", mock.Anything, "r1").Return(&models.Room{ID: "r1", CreatedBy: "u1"}, nil)
	env.members.On("FindByRoomAndUser", mock.Anything, "r1", "u1").Return(&models.RoomMember{ID: "m1", UserID: "u1", IsHost: true}, nil)

	w := env.do(http.MethodPost, "/room-member/leave-room/r1", "u1", `{"userId":"u1"}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, services.CodeHostCannotLeave, decode(t, w)["code"])
}

func TestRemoveMember_HostUserIDMustMatch(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodDelete, "/room-member/r1/members/m2", "u1", `{"hostUserId":"u9"}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
	env.rooms.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestGetRoomMembers(t *testing.T) {
	env := newTestEnv()
	env.rooms.On("FindByID", mock.Anything, "r1").Return(&models.Room{ID: "r1"}, nil)
	env.members.On("ListByRoom", mock.Anything, "r1").Return([]models.MemberView{
		{RoomMember: models.RoomMember{ID: "m1", RoomID: "r1", UserID: "u1", IsHost: true}, UserName: "Alice"},
	}, nil)

	w := env.do(http.MethodGet, "/room-member/get-room-members/r1", "u1", "")

	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "Alice", data[0].(map[string]interface{})["userName"])
}

func TestCategories(t *testing.T) {
	env := newTestEnv()
	env.categories.On("FindBySlug", mock.Anything, "party-games").Return(nil, repository.ErrNotFound)
	env.categories.On("Create", mock.Anything, mock.Anything).Return(nil)
	env.categories.On("List", mock.Anything).Return([]models.Category{*classic}, nil)
	env.categories.On("FindByID", mock.Anything, "zzz").Return(nil, repository.ErrNotFound)
	env.categories.On("FindBySlug", mock.Anything, "zzz").Return(nil, repository.ErrNotFound)

	w := env.do(http.MethodPost, "/categories", "", `{"name":"Party Games"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Category created successfully", body["message"])
	assert.Equal(t, "party-games", body["category"].(map[string]interface{})["slug"])

	w = env.do(http.MethodGet, "/categories", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["categories"], 1)

	w = env.do(http.MethodGet, "/categories/get-by-id/zzz", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, map[string]interface{}{"searchedId": "zzz"}, decode(t, w)["details"])
}

func TestGetAllQuestions(t *testing.T) {
	env := newTestEnv()
	env.questions.On("List", mock.Anything, 0, 10).Return([]models.Question{{ID: "q1", Content: "Truth?"}}, int64(1), nil)

	w := env.do(http.MethodGet, "/questions/all", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["data"], 1)
	assert.EqualValues(t, 1, body["pagination"].(map[string]interface{})["total"])
}

func TestSignUpSetsCookie(t *testing.T) {
	env := newTestEnv()
	env.users.On("FindByEmail", mock.Anything, "dana@example.com").Return(nil, repository.ErrNotFound)
	env.users.On("Create", mock.Anything, mock.Anything).Return(nil)
	env.sessions.On("Create", mock.Anything, mock.Anything).Return(nil)

	w := env.do(http.MethodPost, "/auth/sign-up/email", "", `{"name":"Dana","email":"dana@example.com","password":"correct horse"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.NotEmpty(t, body["token"])
	assert.NotContains(t, body["user"], "passwordHash")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.SessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}

func TestGetSession_RequiresSession(t *testing.T) {
	env := newTestEnv()
	w := env.do(http.MethodGet, "/auth/get-session", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

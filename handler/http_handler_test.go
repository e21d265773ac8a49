package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"alerta_social/model"
	"alerta_social/service"
	"alerta_social/utils/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthAndMetricsArePublic(t *testing.T) {
	env := newTestEnv(t, PolicySingle, 5)

	status, body := env.httpRequest(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	resp, err := http.Get(env.server.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPIRequiresToken(t *testing.T) {
	env := newTestEnv(t, PolicySingle, 5)
	ana := env.createTestUser("ana")
	expired := testutil.SignToken(t, testutil.TestSecret, ana.User, -time.Minute)

	status, _ := env.httpRequest(http.MethodGet, APIPrefix+"/notificacoes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.httpRequest(http.MethodGet, APIPrefix+"/notificacoes", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestPostValidation(t *testing.T) {
	env := newTestEnv(t, PolicySingle, 5)
	ana := env.createTestUser("ana")

	status, _ := env.httpRequest(http.MethodPost, APIPrefix+"/postagens", ana.Token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.httpRequest(http.MethodPost, APIPrefix+"/postagens", ana.Token, map[string]string{"conteudo": "   "})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.httpRequest(http.MethodPost, APIPrefix+"/postagens/abc/curtir", ana.Token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.httpRequest(http.MethodPost, APIPrefix+"/postagens/999/curtir", ana.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.httpRequest(http.MethodPost, APIPrefix+"/postagens/999/comentarios", ana.Token, map[string]string{"conteudo": "oi"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDeleteComment_Permissions(t *testing.T) {
	env := newTestEnv(t, PolicySingle, 5)
	ana := env.createTestUser("ana")
	bia := env.createTestUser("bia")
	caio := env.createTestUser("caio")
	post := testutil.MustCreatePost(t, env.db, ana.ID, "alerta")

	status, body := env.httpRequest(http.MethodPost, fmt.Sprintf("%s/postagens/%d/comentarios", APIPrefix, post.ID), bia.Token,
		map[string]string{"conteudo": "primeiro"})
	require.Equal(t, http.StatusCreated, status)
	firstID := int(body["comentario"].(map[string]interface{})["id"].(float64))

	status, body = env.httpRequest(http.MethodPost, fmt.Sprintf("%s/postagens/%d/comentarios", APIPrefix, post.ID), bia.Token,
		map[string]string{"conteudo": "segundo"})
	require.Equal(t, http.StatusCreated, status)
	secondID := int(body["comentario"].(map[string]interface{})["id"].(float64))

	status, _ = env.httpRequest(http.MethodDelete, fmt.Sprintf("%s/comentarios/%d", APIPrefix, firstID), caio.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// the post author may remove comments on their post
	status, body = env.httpRequest(http.MethodDelete, fmt.Sprintf("%s/comentarios/%d", APIPrefix, firstID), ana.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["total_comentarios"])

	status, body = env.httpRequest(http.MethodDelete, fmt.Sprintf("%s/comentarios/%d", APIPrefix, secondID), bia.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["total_comentarios"])

	status, _ = env.httpRequest(http.MethodDelete, fmt.Sprintf("%s/comentarios/%d", APIPrefix, secondID), bia.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestFriendshipErrors(t *testing.T) {
	env := newTestEnv(t, PolicySingle, 5)
	ana := env.createTestUser("ana")
	bia := env.createTestUser("bia")

	status, _ := env.httpRequest(http.MethodPost, APIPrefix+"/amigos/solicitar", ana.Token, map[string]interface{}{"amigo_id": ana.ID})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.httpRequest(http.MethodPost, APIPrefix+"/amigos/solicitar", ana.Token, map[string]interface{}{"amigo_id": 9999})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.httpRequest(http.MethodPost, APIPrefix+"/amigos/solicitar", ana.Token, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := env.httpRequest(http.MethodPost, APIPrefix+"/amigos/solicitar", ana.Token, map[string]interface{}{"amigo_id": bia.ID})
	require.Equal(t, http.StatusCreated, status)
	requestID := int(body["solicitacao"].(map[string]interface{})["id"].(float64))

	status, _ = env.httpRequest(http.MethodPost, APIPrefix+"/amigos/solicitar", bia.Token, map[string]interface{}{"amigo_id": ana.ID})
	assert.Equal(t, http.StatusConflict, status)

	status, body = env.httpRequest(http.MethodGet, APIPrefix+"/amigos/pendentes", bia.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["solicitacoes"], 1)

	// only the target answers
	status, _ = env.httpRequest(http.MethodPost, fmt.Sprintf("%s/amigos/%d/aceitar", APIPrefix, requestID), ana.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.httpRequest(http.MethodPost, fmt.Sprintf("%s/amigos/%d/recusar", APIPrefix, requestID), bia.Token, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = env.httpRequest(http.MethodPost, fmt.Sprintf("%s/amigos/%d/aceitar", APIPrefix, requestID), bia.Token, nil)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = env.httpRequest(http.MethodPost, APIPrefix+"/amigos/9999/aceitar", bia.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestNotificationEndpoints(t *testing.T) {
	env := newTestEnv(t, PolicySingle, 5)
	ana := env.createTestUser("ana")
	bia := env.createTestUser("bia")

	first := env.seedNotification(ana, bia, model.NotificationLike)
	env.seedNotification(ana, bia, model.NotificationComment)
	biaNotif := env.seedNotification(bia, ana, model.NotificationLike)

	conn, _ := env.join(ana)

	status, body := env.httpRequest(http.MethodGet, APIPrefix+"/notificacoes?limit=1", ana.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["notificacoes"], 1)
	assert.Equal(t, float64(2), body["total_nao_lidas"])

	// someone else's id updates nothing
	status, body = env.httpRequest(http.MethodPost, fmt.Sprintf("%s/notificacoes/%d/lida", APIPrefix, biaNotif.ID), ana.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["atualizadas"])
	assert.Equal(t, float64(2), body["total_nao_lidas"])

	status, body = env.httpRequest(http.MethodPost, fmt.Sprintf("%s/notificacoes/%d/lida", APIPrefix, first.ID), ana.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["atualizadas"])
	assert.Equal(t, float64(1), body["total_nao_lidas"])

	status, body = env.httpRequest(http.MethodPost, APIPrefix+"/notificacoes/lidas", ana.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["total_nao_lidas"])

	// the open socket follows every HTTP change
	for _, want := range []float64{2, 1, 0} {
		msg, err := wsReceiveRaw(conn, recvTimeout)
		require.NoError(t, err)
		assert.Equal(t, model.EventUnreadCount, msg["type"])
		assert.Equal(t, want, msg["data"])
	}
}

func TestPresence_FriendsOnly(t *testing.T) {
	env := newTestEnv(t, PolicySingle, 5)
	ana := env.createTestUser("ana")
	bia := env.createTestUser("bia")
	caio := env.createTestUser("caio")

	status, body := env.httpRequest(http.MethodPost, APIPrefix+"/amigos/solicitar", ana.Token, map[string]interface{}{"amigo_id": bia.ID})
	require.Equal(t, http.StatusCreated, status)
	requestID := int(body["solicitacao"].(map[string]interface{})["id"].(float64))

	// pending is not friends yet
	status, _ = env.httpRequest(http.MethodGet, fmt.Sprintf("%s/presenca/%d", APIPrefix, bia.ID), ana.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.httpRequest(http.MethodPost, fmt.Sprintf("%s/amigos/%d/aceitar", APIPrefix, requestID), bia.Token, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = env.httpRequest(http.MethodGet, fmt.Sprintf("%s/presenca/%d", APIPrefix, bia.ID), ana.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["online"])

	env.join(bia)

	status, body = env.httpRequest(http.MethodGet, fmt.Sprintf("%s/presenca/%d", APIPrefix, bia.ID), ana.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["online"])

	// a key mirrored by another process counts too
	env.redis.Set("online:"+fmt.Sprint(ana.ID), "1")
	status, body = env.httpRequest(http.MethodGet, fmt.Sprintf("%s/presenca/%d", APIPrefix, ana.ID), bia.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["online"])

	status, _ = env.httpRequest(http.MethodGet, fmt.Sprintf("%s/presenca/%d", APIPrefix, bia.ID), caio.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

// TestNotificationEndpoints_UnreadCountFailure checks that a failed recount is
// reported as an error instead of a zero total.
func TestNotificationEndpoints_UnreadCountFailure(t *testing.T) {
	env := newTestEnv(t, PolicySingle, 5)
	ana := env.createTestUser("ana")
	bia := env.createTestUser("bia")
	n := env.seedNotification(ana, bia, model.NotificationLike)

	env.failNotificationReads()

	status, body := env.httpRequest(http.MethodPost, fmt.Sprintf("%s/notificacoes/%d/lida", APIPrefix, n.ID), ana.Token, nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, body, "total_nao_lidas")

	status, body = env.httpRequest(http.MethodPost, APIPrefix+"/notificacoes/lidas", ana.Token, nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, body, "total_nao_lidas")
}

// TestEmitterStoreFailure_RequestStillSucceeds
//
// The writes commit before the emitters run, so a broken notificacoes table
// never turns a like, a comment or a friend request into an error response.
func TestEmitterStoreFailure_RequestStillSucceeds(t *testing.T) {
	env := newTestEnv(t, PolicySingle, 5)
	ana := env.createTestUser("ana")
	bia := env.createTestUser("bia")
	post := testutil.MustCreatePost(t, env.db, ana.ID, "árvore caída")

	anaConn, _ := env.join(ana)
	env.dropNotifications()

	status, body := env.httpRequest(http.MethodPost, fmt.Sprintf("%s/postagens/%d/curtir", APIPrefix, post.ID), bia.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["curtido"])

	status, _ = env.httpRequest(http.MethodPost, fmt.Sprintf("%s/postagens/%d/comentarios", APIPrefix, post.ID), bia.Token,
		map[string]interface{}{"conteudo": "já avisei a prefeitura"})
	require.Equal(t, http.StatusCreated, status)

	status, _ = env.httpRequest(http.MethodPost, APIPrefix+"/amigos/solicitar", bia.Token, map[string]interface{}{"amigo_id": ana.ID})
	require.Equal(t, http.StatusCreated, status)

	// the live friend event still goes out without its row
	msg, err := wsReceiveMessageType(anaConn, model.EventFriendRequest, recvTimeout, 5)
	require.NoError(t, err)
	assert.Equal(t, float64(bia.ID), dataOf(msg)["usuarioId"])
}

// TestEmitContext_OutlivesRequest
//
// A client that disconnects right after the commit cancels its request
// context; the like notification is still persisted.
func TestEmitContext_OutlivesRequest(t *testing.T) {
	env := newTestEnv(t, PolicySingle, 5)
	ana := env.createTestUser("ana")
	bia := env.createTestUser("bia")
	post := testutil.MustCreatePost(t, env.db, ana.ID, "poste caído")

	reqCtx, cancelReq := context.WithCancel(context.Background())
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil).WithContext(reqCtx)
	cancelReq()

	ctx, cancel := emitContext(c)
	defer cancel()
	require.NoError(t, ctx.Err())
	_, hasDeadline := ctx.Deadline()
	assert.True(t, hasDeadline)

	emitters := service.NewNotificationEmitter(env.notifSvc, service.NewNotificationTemplateService(env.db), env.hub)
	emitters.NewLike(ctx, service.LikeInput{PostID: post.ID, ActorID: bia.ID, OwnerID: ana.ID, ActorName: bia.Name})

	var rows int64
	require.NoError(t, env.db.Model(&model.Notification{}).Where("usuario_id = ?", ana.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

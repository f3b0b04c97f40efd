package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/transfer"
	"github.com/hasapchy/back-sub001/internal/infrastructure/http/v1/dto"
	"github.com/hasapchy/back-sub001/internal/infrastructure/http/v1/middleware"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := dto.RegisterValidators(v); err != nil {
			panic(err)
		}
	}
	os.Exit(m.Run())
}

func newTransferRouter(svc TransferService) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	h := NewTransferHandler(NewBaseHandler(), svc)
	r.GET("/transfers", h.List)
	r.POST("/transfers", h.Create)
	r.GET("/transfers/:id", h.Get)
	r.PUT("/transfers/:id", h.Update)
	r.DELETE("/transfers/:id", h.Delete)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func TestTransferHandler_Create(t *testing.T) {
	from, to := id.New(), id.New()

	testCases := []struct {
		name       string
		body       map[string]any
		buildStubs func(svc *MockTransferService)
		wantStatus int
		wantCode   string
	}{
		{
			name: "OK",
			body: map[string]any{"fromRegisterId": from, "toRegisterId": to, "amount": "100.50", "note": "float"},
			buildStubs: func(svc *MockTransferService) {
				svc.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Times(1).
					DoAndReturn(func(_ context.Context, in transfer.Input) (*transfer.Transfer, error) {
						assert.Equal(t, from, in.FromRegisterID)
						assert.Equal(t, to, in.ToRegisterID)
						assert.Equal(t, "100.5", in.Amount.String())
						assert.Equal(t, "float", in.Note)
						return &transfer.Transfer{
							ID:             id.New(),
							FromRegisterID: from,
							ToRegisterID:   to,
							Amount:         in.Amount,
							Converted:      in.Amount,
							Version:        1,
						}, nil
					})
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "ZeroAmount",
			body: map[string]any{"fromRegisterId": from, "toRegisterId": to, "amount": "0"},
			buildStubs: func(svc *MockTransferService) {
				svc.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperror.CodeValidation,
		},
		{
			name: "MissingSource",
			body: map[string]any{"toRegisterId": to, "amount": "5"},
			buildStubs: func(svc *MockTransferService) {
				svc.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperror.CodeValidation,
		},
		{
			name: "SameRegister",
			body: map[string]any{"fromRegisterId": from, "toRegisterId": from, "amount": "5"},
			buildStubs: func(svc *MockTransferService) {
				svc.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Times(1).
					Return(nil, apperror.NewSameRegister(from.String()))
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   apperror.CodeSameRegister,
		},
		{
			name: "InsufficientBalance",
			body: map[string]any{"fromRegisterId": from, "toRegisterId": to, "amount": "5"},
			buildStubs: func(svc *MockTransferService) {
				svc.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Times(1).
					Return(nil, apperror.NewInsufficientBalance(from.String(), "5", decimal.Zero.String()))
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   apperror.CodeInsufficientBalance,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := NewMockTransferService(ctrl)
			tc.buildStubs(svc)

			rec := doJSON(t, newTransferRouter(svc), http.MethodPost, "/transfers", tc.body)

			require.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
			if tc.wantCode != "" {
				assert.Equal(t, tc.wantCode, errorCode(t, rec))
			}
		})
	}
}

func TestTransferHandler_UpdatePassesVersion(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewMockTransferService(ctrl)
	transferID, from, to := id.New(), id.New(), id.New()

	svc.EXPECT().
		Update(gomock.Any(), transferID, gomock.Any(), 3).
		Return(nil, apperror.NewConcurrentModification("cash_transfer", transferID.String()))

	rec := doJSON(t, newTransferRouter(svc), http.MethodPut, "/transfers/"+transferID.String(),
		map[string]any{"fromRegisterId": from, "toRegisterId": to, "amount": "1", "version": 3})

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperror.CodeConcurrentModification, errorCode(t, rec))
}

func TestTransferHandler_Get(t *testing.T) {
	t.Run("InvalidID", func(t *testing.T) {
		svc := NewMockTransferService(gomock.NewController(t))
		rec := doJSON(t, newTransferRouter(svc), http.MethodGet, "/transfers/not-a-uuid", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc := NewMockTransferService(gomock.NewController(t))
		transferID := id.New()
		svc.EXPECT().Get(gomock.Any(), transferID).Return(nil, apperror.NewNotFound("cash_transfer", transferID.String()))

		rec := doJSON(t, newTransferRouter(svc), http.MethodGet, "/transfers/"+transferID.String(), nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, apperror.CodeNotFound, errorCode(t, rec))
	})
}

func TestTransferHandler_Delete(t *testing.T) {
	svc := NewMockTransferService(gomock.NewController(t))
	transferID := id.New()
	svc.EXPECT().Delete(gomock.Any(), transferID).Return(nil)

	rec := doJSON(t, newTransferRouter(svc), http.MethodDelete, "/transfers/"+transferID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestTransferHandler_ListFilter(t *testing.T) {
	svc := NewMockTransferService(gomock.NewController(t))
	registerID := id.New()
	svc.EXPECT().
		List(gomock.Any(), transfer.Filter{RegisterID: &registerID, Limit: dto.DefaultLimit}).
		Return([]*transfer.Transfer{{ID: id.New()}}, nil)

	rec := doJSON(t, newTransferRouter(svc), http.MethodGet, "/transfers?registerId="+registerID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []transfer.Transfer `json:"items"`
		Limit int                 `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Items, 1)
	assert.Equal(t, dto.DefaultLimit, body.Limit)
}

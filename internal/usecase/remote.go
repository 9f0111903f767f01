package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"hms-listview/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// resultSuccess admin API 的 Result 成功码
const resultSuccess = 2000

// envelope 后端统一返回 {code,type,message,result}
type envelope struct {
	Code    int             `json:"code"`
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// NewRemoteClient 创建访问 admin API 的 resty 客户端
// 不做自动重试：失败交给列表页的 online 触发/手动重试
func NewRemoteClient(baseURL string, timeout time.Duration) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
}

// RemoteCRUD 通过 admin API 实现 CRUD
//   - GET    {resource}?page=&limit=&tenant_id=
//   - GET    {resource}/{id}
//   - POST   {resource}
//   - PUT    {resource}/{id}
//   - DELETE {resource}/{id}
type RemoteCRUD struct {
	client   *resty.Client
	resource string
	headers  map[string]string
	logger   *zap.Logger
}

// NewRemoteCRUD headers 会附加在每个请求上（X-User-Id / X-Tenant-Id / X-User-Role 等）
func NewRemoteCRUD(client *resty.Client, resource string, headers map[string]string, logger *zap.Logger) *RemoteCRUD {
	return &RemoteCRUD{
		client:   client,
		resource: resource,
		headers:  headers,
		logger:   logger,
	}
}

func (r *RemoteCRUD) List(ctx context.Context, params ListParams) (*ListResult, error) {
	page := params.Page
	if page <= 0 {
		page = 1
	}
	limit := params.Limit
	if limit <= 0 || limit > domain.MaxPageFetchSize {
		limit = domain.MaxPageFetchSize
	}
	query := map[string]string{
		"page":  strconv.Itoa(page),
		"limit": strconv.Itoa(limit),
	}
	if params.TenantID != "" {
		query["tenant_id"] = params.TenantID
	}

	var out ListResult
	if err := r.do(ctx, http.MethodGet, r.resource, query, nil, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []domain.ListItem{}
	}
	return &out, nil
}

func (r *RemoteCRUD) Get(ctx context.Context, id string) (domain.ListItem, error) {
	var out domain.ListItem
	if err := r.do(ctx, http.MethodGet, r.itemPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RemoteCRUD) Create(ctx context.Context, payload map[string]any) (domain.ListItem, error) {
	var out domain.ListItem
	if err := r.do(ctx, http.MethodPost, r.resource, nil, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RemoteCRUD) Update(ctx context.Context, id string, payload map[string]any) (domain.ListItem, error) {
	var out domain.ListItem
	if err := r.do(ctx, http.MethodPut, r.itemPath(id), nil, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RemoteCRUD) Remove(ctx context.Context, id string) (domain.ListItem, error) {
	var out domain.ListItem
	if err := r.do(ctx, http.MethodDelete, r.itemPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RemoteCRUD) itemPath(id string) string {
	return r.resource + "/" + url.PathEscape(id)
}

func (r *RemoteCRUD) do(ctx context.Context, method, path string, query map[string]string, body any, out any) error {
	var env envelope
	req := r.client.R().
		SetContext(ctx).
		SetHeaders(r.headers).
		SetResult(&env).
		SetError(&env)
	if query != nil {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return &Error{Code: domain.ErrUnknown, Message: err.Error(), Err: err}
		}
		r.logger.Warn("Admin API unreachable",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return &Error{Code: domain.ErrNetwork, Message: err.Error(), Err: err}
	}

	if resp.IsError() {
		return FromStatus(resp.StatusCode(), env.Message)
	}
	if env.Code != resultSuccess {
		return &Error{Code: domain.ErrUnknown, Status: resp.StatusCode(), Message: env.Message}
	}

	if out != nil && len(env.Result) > 0 && string(env.Result) != "null" {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return &Error{Code: domain.ErrUnknown, Status: resp.StatusCode(), Message: "invalid result payload", Err: err}
		}
	}
	return nil
}

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/iliyamo/smartstay/internal/model"
)

// RegisterVisitor validates in and registers a visitor for the calling
// student.
func (c *Client) RegisterVisitor(ctx context.Context, in model.VisitorInput) (*model.Visitor, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var v model.Visitor
	if _, err := c.do(ctx, http.MethodPost, "/visitors/register", in, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// MyVisitors lists the calling student's visitors, newest first.
func (c *Client) MyVisitors(ctx context.Context) ([]*model.Visitor, error) {
	var out []*model.Visitor
	_, err := c.do(ctx, http.MethodGet, "/visitors/my-visitors", nil, &out)
	return out, err
}

func (c *Client) GetVisitor(ctx context.Context, id uint64) (*model.Visitor, error) {
	var v model.Visitor
	if _, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/visitors/%d", id), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) CancelVisitor(ctx context.Context, id uint64) (*model.Visitor, error) {
	return c.visitorAction(ctx, id, "cancel", nil)
}

// ApproveVisitor approves a pending visitor.  remarks may be nil.
func (c *Client) ApproveVisitor(ctx context.Context, id uint64, remarks *string) (*model.Visitor, error) {
	return c.visitorAction(ctx, id, "approve", map[string]*string{"remarks": remarks})
}

// RejectVisitor rejects a pending visitor.  Blank remarks fail locally.
func (c *Client) RejectVisitor(ctx context.Context, id uint64, remarks string) (*model.Visitor, error) {
	if err := model.ValidateRemarks(remarks); err != nil {
		return nil, err
	}
	return c.visitorAction(ctx, id, "reject", map[string]string{"remarks": remarks})
}

func (c *Client) CheckInVisitor(ctx context.Context, id uint64) (*model.Visitor, error) {
	return c.visitorAction(ctx, id, "check-in", nil)
}

func (c *Client) CheckOutVisitor(ctx context.Context, id uint64) (*model.Visitor, error) {
	return c.visitorAction(ctx, id, "check-out", nil)
}

func (c *Client) visitorAction(ctx context.Context, id uint64, action string, body any) (*model.Visitor, error) {
	var v model.Visitor
	if _, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/visitors/%d/%s", id, action), body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) PendingVisitors(ctx context.Context) ([]*model.Visitor, error) {
	var out []*model.Visitor
	_, err := c.do(ctx, http.MethodGet, "/visitors/admin/pending", nil, &out)
	return out, err
}

func (c *Client) ActiveVisitors(ctx context.Context) ([]*model.Visitor, error) {
	var out []*model.Visitor
	_, err := c.do(ctx, http.MethodGet, "/visitors/admin/active", nil, &out)
	return out, err
}

// AllVisitors lists visitors matching f.  Zero fields are not sent.
func (c *Client) AllVisitors(ctx context.Context, f model.VisitorFilter) ([]*model.Visitor, error) {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("status", string(f.Status))
	set("startDate", f.StartDate)
	set("endDate", f.EndDate)
	set("studentId", f.StudentID)
	set("studentEmail", f.StudentEmail)

	path := "/visitors/admin/all"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []*model.Visitor
	_, err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// VerifyPass looks up the visitor holding a gate pass token.
func (c *Client) VerifyPass(ctx context.Context, qrCode string) (*model.Visitor, error) {
	var v model.Visitor
	if _, err := c.do(ctx, http.MethodGet, "/visitors/verify/"+url.PathEscape(qrCode), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// PartitionVisitors splits visitors into those still in play (pending,
// approved or checked in) and the finished history.  Order is preserved.
func PartitionVisitors(vs []*model.Visitor) (active, history []*model.Visitor) {
	active = []*model.Visitor{}
	history = []*model.Visitor{}
	for _, v := range vs {
		if v.Status.Active() {
			active = append(active, v)
		} else {
			history = append(history, v)
		}
	}
	return active, history
}

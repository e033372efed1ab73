package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/Skotchmaster/pharmacy_storefront/internal/messages"
	"github.com/Skotchmaster/pharmacy_storefront/internal/models"
	"github.com/tidwall/gjson"
)

type credentials struct {
	Phone    string `json:"sodienthoai"`
	Password string `json:"matkhau"`
}

// SignIn returns the access token. The backend signals success with 201 only.
func (c *Client) SignIn(ctx context.Context, phone, password string) (string, error) {
	r, err := c.do(ctx, http.MethodPost, "/identityuser/signIn", "", credentials{Phone: phone, Password: password})
	if err != nil {
		return "", err
	}
	token := gjson.GetBytes(r.Body, "data.accessToken").String()
	if r.Status != http.StatusCreated || token == "" {
		return "", apiError(r, messages.LoginFailed)
	}
	return token, nil
}

func (c *Client) CreateAccount(ctx context.Context, phone, password string) error {
	r, err := c.do(ctx, http.MethodPost, "/identityuser/createAccount", "", credentials{Phone: phone, Password: password})
	if err != nil {
		return err
	}
	accepted := gjson.GetBytes(r.Body, "success").Bool() ||
		gjson.GetBytes(r.Body, "message").String() == "Request Successfully"
	if !r.OK() || !accepted {
		return apiError(r, messages.RegisterFailed)
	}
	return nil
}

func (c *Client) GetUserByPhone(ctx context.Context, phone string) (*models.UserProfile, error) {
	r, err := c.do(ctx, http.MethodGet, "/identityuser/getUserByPhone/"+url.PathEscape(phone), "", nil)
	if err != nil {
		return nil, err
	}
	if r.Status == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if !r.OK() {
		return nil, apiError(r, messages.ProfileLoadFailed)
	}
	return decodeObject[models.UserProfile](r.Body, "data")
}

func (c *Client) UpdateUser(ctx context.Context, phone string, form models.ProfileUpdate) (*models.UserProfile, error) {
	r, err := c.do(ctx, http.MethodPut, "/identityuser/updateUser/"+url.PathEscape(phone), "", form)
	if err != nil {
		return nil, err
	}
	if !r.OK() {
		return nil, apiError(r, messages.ProfileUpdateFailed)
	}
	p, err := decodeObject[models.UserProfile](r.Body, "data")
	if errors.Is(err, ErrNotFound) {
		// some deployments answer with an empty envelope
		return &models.UserProfile{
			FullName: form.FullName, Phone: phone, Email: form.Email,
			BirthDate: form.BirthDate, Gender: form.Gender,
		}, nil
	}
	return p, err
}

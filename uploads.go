package folioadmin

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rotisserie/eris"
	"golang.org/x/image/draw"

	"github.com/eringen/folioadmin/entity"
	"github.com/eringen/folioadmin/notify"
	"github.com/eringen/folioadmin/remote"
	"github.com/eringen/folioadmin/storage"
	"github.com/eringen/folioadmin/views"
)

const (
	maxImageWidth = 1600
	jpegQuality   = 85
	maxUploadSize = 10 << 20 // 10MB

	uploadsName = "uploads"
)

// ObjectStore is where uploaded images are kept.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (storage.Object, error)
	List(ctx context.Context) ([]storage.Object, error)
	Remove(ctx context.Context, key string) error
}

// processImage decodes an image from src, downscales it to maxImageWidth
// and encodes it as JPEG.
func processImage(src io.Reader) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, eris.Wrap(err, "decode image")
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, eris.Wrap(err, "encode jpeg")
	}
	return buf.Bytes(), nil
}

func (a *App) handleUploads(c echo.Context) error {
	page := views.UploadsPage{Enabled: a.Bucket != nil, CSRF: CsrfToken(c)}
	if a.Bucket != nil {
		objs, err := a.Bucket.List(c.Request().Context())
		if err != nil {
			a.Logger.WithError(err).Warn("listing uploads failed")
			page.Err = "Uploads could not be listed."
		}
		for _, o := range objs {
			page.Items = append(page.Items, views.UploadItem{
				Key: o.Key, Name: o.Name(), URL: o.URL, Size: o.Size, Modified: o.LastModified,
			})
		}
	}
	return a.page(c, http.StatusOK, "Uploads", uploadsName, a.Views.Uploads(page))
}

func (a *App) handleUpload(c echo.Context) error {
	ctx := c.Request().Context()
	if a.Bucket == nil {
		return echo.NewHTTPError(http.StatusNotFound, storage.ErrDisabled.Error())
	}

	file, err := c.FormFile("image")
	if err != nil {
		notify.Error(ctx, "No image file provided")
		return c.Redirect(http.StatusSeeOther, "/admin/uploads/")
	}
	if file.Size > maxUploadSize {
		notify.Error(ctx, "File too large (max 10MB)")
		return c.Redirect(http.StatusSeeOther, "/admin/uploads/")
	}

	src, err := file.Open()
	if err != nil {
		return eris.Wrap(err, "opening upload")
	}
	defer src.Close()

	data, err := processImage(src)
	if err != nil {
		notify.Error(ctx, "Invalid image: "+eris.Cause(err).Error())
		return c.Redirect(http.StatusSeeOther, "/admin/uploads/")
	}

	obj, err := a.Bucket.Put(ctx, storage.NewKey(time.Now(), "jpg"), data, "image/jpeg")
	if err != nil {
		a.Logger.WithError(err).Error("storing upload failed")
		notify.Error(ctx, "The image could not be stored.")
		return c.Redirect(http.StatusSeeOther, "/admin/uploads/")
	}
	a.journal(ctx, "created", obj.Key)
	notify.Success(ctx, "Image uploaded")
	return c.Redirect(http.StatusSeeOther, "/admin/uploads/")
}

func (a *App) handleConfirmUploadDelete(c echo.Context) error {
	key := c.QueryParam("key")
	if a.Bucket == nil || !strings.HasPrefix(key, storage.Prefix) {
		return echo.NewHTTPError(http.StatusNotFound, "no such upload")
	}
	p := views.ConfirmPage{
		Title:   "Delete image",
		Message: "Delete " + strings.TrimPrefix(key, storage.Prefix) + "? Pages that use it will show a broken image.",
		Action:  "/admin/uploads/delete/",
		Cancel:  "/admin/uploads/",
		Hidden:  map[string]string{"key": key},
		CSRF:    CsrfToken(c),
	}
	return a.page(c, http.StatusOK, p.Title, uploadsName, a.Views.Confirm(p))
}

func (a *App) handleUploadDelete(c echo.Context) error {
	ctx := c.Request().Context()
	if a.Bucket == nil {
		return echo.NewHTTPError(http.StatusNotFound, storage.ErrDisabled.Error())
	}
	key := c.FormValue("key")
	switch {
	case c.FormValue("confirm") != "yes":
		notify.Error(ctx, "Delete was not confirmed")
	default:
		if err := a.Bucket.Remove(ctx, key); err != nil {
			a.Logger.WithError(err).WithField("key", key).Warn("deleting upload failed")
			notify.Error(ctx, "The image could not be deleted.")
			break
		}
		a.journal(ctx, "deleted", key)
		notify.Success(ctx, "Image deleted")
	}
	return c.Redirect(http.StatusSeeOther, "/admin/uploads/")
}

// journal records an upload change. Failures are only logged.
func (a *App) journal(ctx context.Context, action, key string) {
	act := entity.Activity{Entity: uploadsName, Action: action, RowID: key, At: time.Now().UTC()}
	if s, ok := remote.SessionFromContext(ctx); ok {
		act.Actor = s.User.Email
	}
	if err := a.Journal.Record(ctx, act); err != nil {
		a.Logger.WithError(err).WithField("key", key).Error("journal write failed")
	}
}

package controllers

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ankushm/storefront-backend/api/responses"
	"github.com/ankushm/storefront-backend/api/validators"
	"github.com/ankushm/storefront-backend/internal/catalog"
	pkgerrors "github.com/ankushm/storefront-backend/pkg/errors"
	"github.com/ankushm/storefront-backend/pkg/logger"
	"github.com/ankushm/storefront-backend/pkg/storage/gcs"
)

const imageFormField = "image"

var imageExtByContentType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// AdminUploadProductImage stores an image in the bucket and attaches its key
// to the product.
func AdminUploadProductImage(catalogSvc catalog.Service, uploader gcs.Uploader, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalogSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		if uploader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "image storage unavailable"))
			return
		}

		productID, err := validators.ParseID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		maxBytes := int64(maxUploadMB) << 20
		if maxBytes <= 0 {
			maxBytes = 10 << 20
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

		if err := r.ParseMultipartForm(maxBytes); err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("image must be multipart form data under %dMB", maxBytes>>20)))
			return
		}

		file, header, err := r.FormFile(imageFormField)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image form field is required"))
			return
		}
		defer file.Close()

		contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
		ext, ok := imageExtByContentType[contentType]
		if !ok {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "image must be jpeg, png, or webp"))
			return
		}

		key := path.Join("products", fmt.Sprintf("%d", productID), uuid.NewString()+ext)
		imageURL, err := uploader.Upload(r.Context(), key, contentType, file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload image"))
			return
		}

		product, err := catalogSvc.Update(r.Context(), productID, catalog.UpdateInput{ImageKey: &key})
		if err != nil {
			if delErr := uploader.Delete(r.Context(), key); delErr != nil && logg != nil {
				logg.Error(r.Context(), "cleanup uploaded image", delErr)
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"product":   product,
			"image_url": imageURL,
		})
	}
}

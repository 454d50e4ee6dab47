package webutils

import (
	"bytes"
	"encoding/json"
	"image"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// MAX_UPLOAD_SIZE limits multipart forms kept in memory
const MAX_UPLOAD_SIZE = 32 << 20

func WriteFileHeaders(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
}

func WriteFile(w http.ResponseWriter, in io.Reader, name string) {
	WriteFileHeaders(w, name)
	if _, err := io.Copy(w, in); err != nil {
		log.Printf("[web] Error when writing file %q: %v", name, err)
	}
}

// WritePNG serves image inline, so browser can show it in <img>
func WritePNG(w http.ResponseWriter, png []byte, name string) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", "inline; filename=\""+name+"\"")
	WriteResult(w, png)
}

func WriteWebP(w http.ResponseWriter, webp []byte) {
	w.Header().Set("Content-Type", "image/webp")
	WriteResult(w, webp)
}

func WriteJson(w http.ResponseWriter, data interface{}) {
	res, err := json.Marshal(data)
	if err != nil {
		WriteError(w, err)
	} else {
		w.Header().Set("Content-Type", "application/json")
		WriteResult(w, res)
	}
}

func WriteJsonFile(w http.ResponseWriter, v interface{}, fileName string) {
	if data, err := json.MarshalIndent(v, "", "  "); err != nil {
		WriteError(w, errors.Wrapf(err, "Failed to marshal"))
	} else {
		WriteFile(w, bytes.NewReader(data), fileName+".json")
	}
}

func openFormFile(r *http.Request, formFileKey string) (multipart.File, error) {
	if strings.ToUpper(r.Method) != "POST" {
		return nil, errors.Errorf("Invalid http method %q", r.Method)
	}
	if err := r.ParseMultipartForm(MAX_UPLOAD_SIZE); err != nil && err != http.ErrNotMultipart {
		return nil, errors.Wrapf(err, "Failed to parse form")
	}
	f, _, err := r.FormFile(formFileKey)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to get file %q", formFileKey)
	}
	return f, nil
}

func ReadFormFile(r *http.Request, formFileKey string) ([]byte, error) {
	f, err := openFormFile(r, formFileKey)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	return data, errors.Wrapf(err, "Failed to read")
}

// ReadFormImage passes uploaded file to decode. Decoders are registered by caller package.
func ReadFormImage(r *http.Request, formFileKey string, decode func(io.Reader) (image.Image, error)) (image.Image, error) {
	f, err := openFormFile(r, formFileKey)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(f)
}

func ReadJsonFile(r *http.Request, formFileKey string, v interface{}) error {
	data, err := ReadFormFile(r, formFileKey)
	if err != nil {
		return err
	}
	return errors.Wrapf(json.Unmarshal(data, v), "Failed to unmarshal")
}

func WriteResult(w http.ResponseWriter, data []byte) {
	if _, err := w.Write(data); err != nil {
		log.Printf("[web] Error when writing response: %v", err)
	}
}

func WriteError(w http.ResponseWriter, err error) {
	type jError struct {
		Error string `json:"error"`
	}
	data, merr := json.Marshal(&jError{Error: err.Error()})
	if merr != nil {
		log.Printf("[web] Error marshaling error '%v': %v", err, merr)
		return
	}
	log.Printf("[web] HERR: %s", data)
	w.Header().Set("Content-Type", "application/json")
	WriteResult(w, data)
}

package session

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hittest/packages/params"
)

// newFakeApp returns the handler the session tests drive
func newFakeApp() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
		p, err := params.ParseRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer params.Release(p)
		if r.Method == http.MethodOptions {
			return
		}
		fmt.Fprintf(w, "Hello, %s: %s", r.Method, params.BuildNestedQuery(p, ""))
	})

	mux.HandleFunc("GET /redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/redirected", http.StatusFound)
	})
	mux.HandleFunc("POST /redirect", func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusFound
		if v := r.FormValue("status"); v != "" {
			status, _ = strconv.Atoi(v)
		}
		http.Redirect(w, r, "/redirected", status)
	})
	mux.HandleFunc("GET /nested/redirect", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "redirected")
		w.WriteHeader(http.StatusMovedPermanently)
	})
	mux.HandleFunc("GET /nested/redirected", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "Hello World!")
	})
	mux.HandleFunc("GET /absolute/redirect", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://www.google.com")
		w.WriteHeader(http.StatusMovedPermanently)
	})
	mux.HandleFunc("GET /loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	mux.HandleFunc("/redirected", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			io.WriteString(w, "You've been redirected")
			return
		}
		p, err := params.ParseRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer params.Release(p)
		fmt.Fprintf(w, "You've been redirected using %s with %s", r.Method, params.BuildNestedQuery(p, ""))
	})

	mux.HandleFunc("GET /cookies/show", showCookies)
	mux.HandleFunc("GET /COOKIES/show", showCookies)
	mux.HandleFunc("GET /not-cookies/show", showCookies)
	mux.HandleFunc("GET /cookies/set", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:    "value",
			Value:   r.URL.Query().Get("value"),
			Path:    "/cookies",
			Expires: time.Now().Add(10 * time.Second),
		})
		io.WriteString(w, "Set")
	})
	mux.HandleFunc("GET /cookies/set-simple", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "simple", Value: r.URL.Query().Get("value")})
		io.WriteString(w, "Set")
	})
	mux.HandleFunc("GET /cookies/set-secure", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "secure-cookie", Value: r.URL.Query().Get("value"), Secure: true})
		io.WriteString(w, "Set")
	})
	mux.HandleFunc("GET /cookies/set-multiple", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "key1", Value: "value1"})
		http.SetCookie(w, &http.Cookie{Name: "key2", Value: "value2"})
		io.WriteString(w, "Set")
	})
	mux.HandleFunc("GET /cookies/delete", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "value", Path: "/cookies", MaxAge: -1})
	})
	mux.HandleFunc("GET /cookies/count", countCookie(""))
	mux.HandleFunc("GET /cookies/domain", countCookie("localhost.com"))
	mux.HandleFunc("GET /cookies/subdomain", countCookie(".example.org"))

	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Method", r.Method)
		w.Header().Set("X-Content-Type", r.Header.Get("Content-Type"))
		w.Header().Set("X-Cookie", r.Header.Get("Cookie"))
		w.Write(body)
	})

	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		p, err := params.ParseRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer params.Release(p)

		v, _ := p.Get("photo")
		f, ok := v.(params.File)
		if !ok {
			http.Error(w, "no photo", http.StatusBadRequest)
			return
		}
		content, _ := f.Content()
		fmt.Fprintf(w, "%s %s %q", f.OriginalFilename(), f.ContentType(), content)
	})

	mux.HandleFunc("GET /panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	return mux
}

func showCookies(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(r.Cookies()))
	for _, c := range r.Cookies() {
		names = append(names, c.Name+"="+c.Value)
	}
	io.WriteString(w, strings.Join(names, "; "))
}

func countCookie(domain string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count := 0
		if c, err := r.Cookie("count"); err == nil {
			count, _ = strconv.Atoi(c.Value)
		}
		count++
		http.SetCookie(w, &http.Cookie{Name: "count", Value: strconv.Itoa(count), Domain: domain})
		fmt.Fprint(w, count)
	}
}

// Package smarthttp implements the smart-HTTP git transport
// (info/refs advertisement, git-upload-pack and git-receive-pack),
// the one named external collaborator spec.md gives a concrete wire
// contract for. It is built on go-git's own server-side transport
// session, the same library the core Git Adapter uses for object
// access, rather than hand-rolled packfile/sideband encoding.
package smarthttp

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/protocol/packp"
	"github.com/go-git/go-git/v5/plumbing/protocol/packp/pktline"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/server"

	"gitexplorer/internal/core"
	"gitexplorer/internal/locate"
)

// RepoResolver maps the decorative-prefix-stripped repo-path segment
// of a smart-HTTP request to the RepoRef it addresses.
type RepoResolver func(repoPath string) (core.RepoRef, error)

// Handler serves the smart-HTTP surface for repositories found under
// root via the Repo Locator.
type Handler struct {
	resolve RepoResolver
	srv     transport.Transport
}

// New returns a Handler whose repos resolve under root using the Repo
// Locator (a full RelativePath with no tail must land exactly on a
// repo directory).
func New(root core.ServedRoot) *Handler {
	resolve := func(repoPath string) (core.RepoRef, error) {
		res, err := locate.Find(root, core.RelativePath(strings.Trim(repoPath, "/")))
		if err != nil {
			return "", err
		}
		if !res.Found() || res.Tail != "" {
			return "", core.PathUnfit("no repository at %q", repoPath)
		}
		return res.Repo, nil
	}
	return &Handler{resolve: resolve, srv: server.NewServer(server.NewFilesystemLoader(osfs.New("/")))}
}

func (h *Handler) endpoint(repoPath string) (*transport.Endpoint, error) {
	ref, err := h.resolve(repoPath)
	if err != nil {
		return nil, err
	}
	ep, err := transport.NewEndpoint(string(ref))
	if err != nil {
		return nil, core.PathUnfit("repository path %q is not a valid endpoint: %v", ref, err)
	}
	return ep, nil
}

// InfoRefs serves `GET <repo>/info/refs?service=git-<cmd>`.
func (h *Handler) InfoRefs(c *gin.Context) {
	repoPath := c.Param("repoPath")
	service := c.Query("service")
	if service != "git-upload-pack" && service != "git-receive-pack" {
		c.Status(http.StatusBadRequest)
		return
	}

	ep, err := h.endpoint(repoPath)
	if err != nil {
		c.String(http.StatusNotFound, "")
		return
	}

	var advRefs *packp.AdvRefs
	if service == "git-upload-pack" {
		sess, err := h.srv.NewUploadPackSession(ep, nil)
		if err != nil {
			c.String(http.StatusNotFound, "")
			return
		}
		defer sess.Close()
		advRefs, err = sess.AdvertisedReferencesContext(c.Request.Context())
		if err != nil {
			c.String(http.StatusInternalServerError, "")
			return
		}
	} else {
		sess, err := h.srv.NewReceivePackSession(ep, nil)
		if err != nil {
			c.String(http.StatusNotFound, "")
			return
		}
		defer sess.Close()
		advRefs, err = sess.AdvertisedReferencesContext(c.Request.Context())
		if err != nil {
			c.String(http.StatusInternalServerError, "")
			return
		}
	}

	c.Header("Content-Type", fmt.Sprintf("application/x-%s-advertisement", service))
	c.Status(http.StatusOK)

	enc := pktline.NewEncoder(c.Writer)
	enc.Encodef("# service=%s\n", service)
	enc.Flush()
	advRefs.Encode(c.Writer)
}

// Service serves `POST <repo>/git-<cmd>`.
func (h *Handler) Service(c *gin.Context) {
	repoPath := c.Param("repoPath")
	cmd := c.Param("gitCommand")

	ep, err := h.endpoint(repoPath)
	if err != nil {
		c.String(http.StatusNotFound, "")
		return
	}

	switch cmd {
	case "git-upload-pack":
		h.uploadPack(c, ep)
	case "git-receive-pack":
		h.receivePack(c, ep)
	default:
		c.Status(http.StatusNotFound)
	}
}

func (h *Handler) uploadPack(c *gin.Context, ep *transport.Endpoint) {
	sess, err := h.srv.NewUploadPackSession(ep, nil)
	if err != nil {
		c.String(http.StatusInternalServerError, "")
		return
	}
	defer sess.Close()

	req := packp.NewUploadPackRequest()
	if err := req.Decode(c.Request.Body); err != nil {
		c.String(http.StatusBadRequest, "")
		return
	}

	resp, err := sess.UploadPack(c.Request.Context(), req)
	if err != nil {
		c.String(http.StatusInternalServerError, "")
		return
	}

	c.Header("Content-Type", "application/x-git-upload-pack-result")
	c.Status(http.StatusOK)
	resp.Encode(c.Writer)
}

func (h *Handler) receivePack(c *gin.Context, ep *transport.Endpoint) {
	sess, err := h.srv.NewReceivePackSession(ep, nil)
	if err != nil {
		c.String(http.StatusInternalServerError, "")
		return
	}
	defer sess.Close()

	req := packp.NewReferenceUpdateRequest()
	if err := req.Decode(c.Request.Body); err != nil {
		c.String(http.StatusBadRequest, "")
		return
	}

	status, err := sess.ReceivePack(c.Request.Context(), req)
	if err != nil {
		c.String(http.StatusInternalServerError, "")
		return
	}

	c.Header("Content-Type", "application/x-git-receive-pack-result")
	c.Status(http.StatusOK)
	if status != nil {
		status.Encode(c.Writer)
	}
}

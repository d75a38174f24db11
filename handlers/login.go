package handlers

import (
	"net/http"

	"journal/models"

	"github.com/dchest/captcha"
)

func (a *App) loginForm(w http.ResponseWriter, r *http.Request) {
	form := models.LoginForm{}
	if a.limiter.NeedsCaptcha(getClientIP(r)) {
		form.CaptchaID = captcha.New()
	}
	a.render(w, r, http.StatusOK, "login.html", map[string]any{"Form": form})
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	ip := getClientIP(r)
	t := a.translator(r)
	form := models.LoginForm{Username: r.PostFormValue("username")}

	if !a.limiter.Allow(ip) {
		a.logger.Warn(r.Context(), "login blocked", "ip", ip, "request_id", requestID(r.Context()))
		form.ErrorMsg = t("TooManyAttempts")
		a.render(w, r, http.StatusTooManyRequests, "login.html", map[string]any{"Form": form})
		return
	}

	if a.limiter.NeedsCaptcha(ip) {
		if !captcha.VerifyString(r.PostFormValue("captcha_id"), r.PostFormValue("captcha_solution")) {
			a.limiter.RecordFailure(ip)
			form.ErrorMsg = t("CaptchaFailed")
			a.rejectLogin(w, r, ip, form)
			return
		}
	}

	ok, err := a.gate.Login(w, r, form.Username, r.PostFormValue("password"))
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if !ok {
		a.limiter.RecordFailure(ip)
		a.logger.Warn(r.Context(), "login failed", "ip", ip, "request_id", requestID(r.Context()))
		form.ErrorMsg = t("InvalidCredentials")
		a.rejectLogin(w, r, ip, form)
		return
	}

	a.limiter.Reset(ip)
	a.logger.Info(r.Context(), "login", "ip", ip, "request_id", requestID(r.Context()))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) rejectLogin(w http.ResponseWriter, r *http.Request, ip string, form models.LoginForm) {
	status := http.StatusUnauthorized
	if !a.limiter.Allow(ip) {
		status = http.StatusTooManyRequests
	}
	if a.limiter.NeedsCaptcha(ip) {
		form.CaptchaID = captcha.New()
	}
	a.render(w, r, status, "login.html", map[string]any{"Form": form})
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	if err := a.gate.Logout(w, r); err != nil {
		a.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

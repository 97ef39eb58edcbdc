// internal/browser/session/scripts.go
package session

import (
	"fmt"
	"strings"
)

// MutationBinding is the runtime binding the page observer calls when nodes
// that look like questions are added.
const MutationBinding = "__fpMutation"

// resolveJS defines $fp(xp), the first element matching an XPath.
const resolveJS = `const $fp = (xp) => {
  const n = document.evaluate(xp, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
  return n && n.nodeType === 1 ? n : null;
};
`

// stampFn writes a generation stamp and the property mirrors onto every
// element, then returns the serialized document.
const stampFn = `function(gen) {
  const all = document.getElementsByTagName('*');
  for (let i = 0; i < all.length; i++) {
    const el = all[i];
    el.setAttribute('data-fp-ref', gen + '-' + i);
    const tag = el.tagName;
    if (tag === 'INPUT' || tag === 'TEXTAREA' || tag === 'SELECT') {
      el.setAttribute('data-fp-value', el.value == null ? '' : String(el.value));
    }
    if (tag === 'INPUT' && (el.type === 'checkbox' || el.type === 'radio')) {
      el.setAttribute('data-fp-checked', el.checked ? 'true' : 'false');
    }
    if (tag === 'OPTION') {
      el.setAttribute('data-fp-selected', el.selected ? 'true' : 'false');
    }
  }
  window.__fpGen = gen;
  return document.documentElement.outerHTML;
}`

// queryFn returns the stamps of every element matching an XPath, stamping
// elements added since the last snapshot.
const queryFn = `function(xp) {
  const res = document.evaluate(xp, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
  const out = [];
  for (let i = 0; i < res.snapshotLength; i++) {
    const el = res.snapshotItem(i);
    if (!el || el.nodeType !== 1) continue;
    let stamp = el.getAttribute('data-fp-ref');
    if (!stamp) {
      window.__fpSeq = (window.__fpSeq || 0) + 1;
      stamp = (window.__fpGen || 0) + '-q' + window.__fpSeq;
      el.setAttribute('data-fp-ref', stamp);
    }
    out.push(stamp);
  }
  return out;
}`

const stateFn = `function(xp) {
  const el = $fp(xp);
  if (!el) return {found: false};
  const norm = (s) => (s || '').replace(/\s+/g, ' ').trim();
  const attrs = {};
  for (const a of el.attributes) attrs[a.name] = a.value;
  const st = {
    found: true,
    tagName: el.tagName.toLowerCase(),
    value: ('value' in el && el.value != null) ? String(el.value) : '',
    checked: !!el.checked,
    selected: !!el.selected,
    text: norm(el.textContent),
    attributes: attrs,
    parentClass: el.parentElement ? (el.parentElement.getAttribute('class') || '') : ''
  };
  if (el.tagName === 'SELECT' && el.selectedIndex >= 0) {
    st.selectedText = norm(el.options[el.selectedIndex].textContent);
  }
  return st;
}`

const clickFn = `function(xp) {
  const el = $fp(xp);
  if (!el) return false;
  el.click();
  return true;
}`

const focusFn = `function(xp) {
  const el = $fp(xp);
  if (!el) return false;
  el.scrollIntoView({block: 'center', inline: 'nearest'});
  el.focus();
  return true;
}`

const setPropertyFn = `function(xp, name, value) {
  const el = $fp(xp);
  if (!el) return false;
  el[name] = value;
  return true;
}`

const setAttributeFn = `function(xp, name, value) {
  const el = $fp(xp);
  if (!el) return false;
  el.setAttribute(name, value);
  return true;
}`

// dispatchFn fires events on an element. click is a MouseEvent, so Chromium
// runs activation behaviour on it.
const dispatchFn = `function(xp, names) {
  const el = $fp(xp);
  if (!el) return false;
  for (const name of names) {
    let ev;
    if (name === 'click' || name.startsWith('mouse')) {
      ev = new MouseEvent(name, {bubbles: true, cancelable: true, view: window});
    } else if (name === 'focus' || name === 'blur') {
      ev = new FocusEvent(name, {bubbles: false});
    } else {
      ev = new Event(name, {bubbles: true, cancelable: true});
    }
    el.dispatchEvent(ev);
  }
  return true;
}`

// geometryFn scrolls the element into view and returns its border quad in
// viewport coordinates. Hidden elements report a zero-size quad.
const geometryFn = `function(xp) {
  const el = $fp(xp);
  if (!el) return null;
  el.scrollIntoView({block: 'center', inline: 'nearest'});
  const rect = el.getBoundingClientRect();
  const style = window.getComputedStyle(el);
  const base = {tagName: el.tagName || '', type: el.type || ''};
  if (rect.width <= 0 || rect.height <= 0 || style.display === 'none' || style.visibility === 'hidden') {
    return Object.assign(base, {vertices: [0, 0, 0, 0, 0, 0, 0, 0], width: 0, height: 0});
  }
  return Object.assign(base, {
    vertices: [rect.left, rect.top, rect.right, rect.top, rect.right, rect.bottom, rect.left, rect.bottom],
    width: Math.round(rect.width),
    height: Math.round(rect.height)
  });
}`

// observerJS installs a MutationObserver that reports added question markup
// through the mutation binding. It is idempotent per document.
const observerJS = `(function() {
  if (window.__fpObserver) return;
  const markers = '[data-params], .Qr7Oae, [role="listitem"], fieldset, input, select, textarea';
  const relevant = (n) => n.nodeType === 1 && (n.matches(markers) || n.querySelector(markers));
  const start = () => {
    window.__fpObserver = new MutationObserver((records) => {
      for (const r of records) {
        for (const n of r.addedNodes) {
          if (relevant(n)) {
            if (typeof window.` + MutationBinding + ` === 'function') window.` + MutationBinding + `('added');
            return;
          }
        }
      }
    });
    window.__fpObserver.observe(document.documentElement, {childList: true, subtree: true});
  };
  if (document.documentElement) start(); else document.addEventListener('DOMContentLoaded', start);
})();`

// invoke renders a call of fn with JSON-encoded args. Element scripts get the
// resolver in scope.
func invoke(fn string, args ...interface{}) (string, error) {
	encoded := make([]string, len(args))
	for i, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return "", fmt.Errorf("encode script argument %d: %w", i, err)
		}
		encoded[i] = string(b)
	}
	return fmt.Sprintf("(function() {\n%sreturn (%s)(%s);\n})()", resolveJS, fn, strings.Join(encoded, ", ")), nil
}

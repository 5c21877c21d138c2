package engine

import (
	"encoding/json"
	"fmt"
)

// Message prefixes carried over the native bridge. The bridge
// (window._wails.invoke or the platform message handler) bypasses CORS
// and mixed-content blocking that would stop an HTTP fetch to localhost.
const (
	// MsgPrefix marks a panel/page message: "fsb:msg:{json}".
	MsgPrefix = "fsb:msg:"
	// CallbackPrefix marks an evaluate-script result: "fsb:cb:{json}".
	CallbackPrefix = "fsb:cb:"
)

// bootstrapJS defines the JS side of the message channel:
//
//	__fsb_send(raw)  low-level bridge send, tries each native handler
//	__fsb_post(obj)  posts a {type, payload} message to the host
//	__fsb_cb(obj)    posts an evaluate-script result to the host
//
// console.log is relayed to the host exactly once; the relay guards
// against double installation when scripts are re-injected.
func bootstrapJS() string {
	return `(function(){
if (window.__fsb_post) return;
function send(m){
  try{
    if(window._wails&&window._wails.invoke){window._wails.invoke(m);}
    else if(window.webkit&&window.webkit.messageHandlers&&window.webkit.messageHandlers.external){window.webkit.messageHandlers.external.postMessage(m);}
    else if(window.chrome&&window.chrome.webview){window.chrome.webview.postMessage(m);}
  }catch(e){}
}
window.__fsb_post=function(obj){send("fsb:msg:"+JSON.stringify(obj));};
window.__fsb_cb=function(obj){send("fsb:cb:"+JSON.stringify(obj));};
var origLog=console.log;
console.log=function(){
  var parts=[];
  for(var i=0;i<arguments.length;i++){parts.push(String(arguments[i]));}
  window.__fsb_post({type:"console",payload:parts.join(" ")});
  return origLog.apply(console,arguments);
};
window.__fsb_post({type:"pageEvent",payload:{kind:"started",url:location.href}});
window.addEventListener("load",function(){
  window.__fsb_post({type:"pageEvent",payload:{kind:"finished",url:location.href,title:document.title}});
});
})();`
}

// BootstrapJS exposes the message-channel bootstrap for windows created
// outside the manager and adopted afterwards (the chrome window).
func BootstrapJS() string {
	return bootstrapJS()
}

// evalJS wraps code in the result-callback boilerplate. The code runs as
// a function body; use return to hand back the result.
func evalJS(requestID, code string) string {
	return fmt.Sprintf(`(function(){
try{
var __result=(function(){%s})();
__fsb_cb({requestId:%s,data:__result});
}catch(e){
__fsb_cb({requestId:%s,error:e.message||String(e)});
}
})();`,
		code,
		jsonString(requestID),
		jsonString(requestID),
	)
}

// deliverJS returns JS that hands a host-serialized payload to a panel's
// __fsb_receive hook. Used for getHistory/getDownloads/getSource replies.
func deliverJS(kind string, payload any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("null")
	}
	return fmt.Sprintf(`if(window.__fsb_receive){window.__fsb_receive(%s,%s);}`,
		jsonString(kind), string(data))
}

// jsonString returns a JSON-encoded string literal for safe JS embedding.
func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

package sim

// DemoForm is a Google Forms style page covering every supported field type.
// The simulate command runs against it when no file is given.
const DemoForm = `<!DOCTYPE html>
<html><head><title>Customer Feedback Survey - Google Forms</title></head>
<body>
<div class="freebirdFormviewerViewHeaderTitle" role="heading">Customer Feedback Survey</div>
<div class="freebirdFormviewerViewHeaderDescription">Tell us about your experience with our service.</div>
<form action="https://docs.google.com/forms/d/e/demo/formResponse">
<div role="list">

  <div role="listitem" data-params="%.@.[101,&quot;question&quot;]">
    <div class="Qr7Oae">
      <div class="M7eMe">What is your full name? <span class="vnumgf">*</span></div>
      <input type="text" class="whsOnd" aria-label="Your answer" id="q-name">
    </div>
  </div>

  <div role="listitem" data-params="%.@.[102,&quot;question&quot;]">
    <div class="Qr7Oae">
      <div class="M7eMe">What is your email address?</div>
      <input type="email" class="whsOnd" aria-label="Your email" id="q-email">
    </div>
  </div>

  <div role="listitem" data-params="%.@.[103,&quot;question&quot;]">
    <div class="Qr7Oae">
      <div class="M7eMe">How satisfied are you with our service? <span class="vnumgf">*</span></div>
      <div role="radiogroup">
        <div class="nWQGrd"><label class="docssharedWizToggleLabeledContainer"><div role="radio" aria-checked="false" data-value="Very satisfied" aria-label="Very satisfied" class="Od2TWd"></div><span class="aDTYNe">Very satisfied</span></label></div>
        <div class="nWQGrd"><label class="docssharedWizToggleLabeledContainer"><div role="radio" aria-checked="false" data-value="Satisfied" aria-label="Satisfied" class="Od2TWd"></div><span class="aDTYNe">Satisfied</span></label></div>
        <div class="nWQGrd"><label class="docssharedWizToggleLabeledContainer"><div role="radio" aria-checked="false" data-value="Neutral" aria-label="Neutral" class="Od2TWd"></div><span class="aDTYNe">Neutral</span></label></div>
        <div class="nWQGrd"><label class="docssharedWizToggleLabeledContainer"><div role="radio" aria-checked="false" data-value="Unsatisfied" aria-label="Unsatisfied" class="Od2TWd"></div><span class="aDTYNe">Unsatisfied</span></label></div>
      </div>
    </div>
  </div>

  <div role="listitem" data-params="%.@.[104,&quot;question&quot;]">
    <div class="Qr7Oae">
      <div class="M7eMe">Which features do you use regularly?</div>
      <div role="list">
        <div class="Y6Myld"><label><div role="checkbox" aria-checked="false" data-answer-value="Dashboard" aria-label="Dashboard"></div><span class="aDTYNe">Dashboard</span></label></div>
        <div class="Y6Myld"><label><div role="checkbox" aria-checked="false" data-answer-value="Reports" aria-label="Reports"></div><span class="aDTYNe">Reports</span></label></div>
        <div class="Y6Myld"><label><div role="checkbox" aria-checked="false" data-answer-value="Mobile app" aria-label="Mobile app"></div><span class="aDTYNe">Mobile app</span></label></div>
      </div>
    </div>
  </div>

  <div role="listitem" data-params="%.@.[105,&quot;question&quot;]">
    <div class="Qr7Oae">
      <div class="M7eMe">Which country do you live in?</div>
      <div role="listbox" class="quantumWizMenuPaperselectEl" aria-expanded="false">
        <div role="option" data-value="" aria-selected="true" class="isPlaceholder"><span>Choose</span></div>
        <div role="option" data-value="Indonesia" aria-selected="false"><span>Indonesia</span></div>
        <div role="option" data-value="Malaysia" aria-selected="false"><span>Malaysia</span></div>
        <div role="option" data-value="Singapore" aria-selected="false"><span>Singapore</span></div>
      </div>
    </div>
  </div>

  <div role="listitem" data-params="%.@.[106,&quot;question&quot;]">
    <div class="Qr7Oae">
      <div class="M7eMe">How likely are you to recommend us?</div>
      <div class="freebirdFormviewerComponentsQuestionLinearscaleLinearscaleContainer" role="radiogroup">
        <label><div role="radio" aria-checked="false" data-value="1" aria-label="1"></div><span>1</span></label>
        <label><div role="radio" aria-checked="false" data-value="2" aria-label="2"></div><span>2</span></label>
        <label><div role="radio" aria-checked="false" data-value="3" aria-label="3"></div><span>3</span></label>
        <label><div role="radio" aria-checked="false" data-value="4" aria-label="4"></div><span>4</span></label>
        <label><div role="radio" aria-checked="false" data-value="5" aria-label="5"></div><span>5</span></label>
      </div>
    </div>
  </div>

  <div role="listitem" data-params="%.@.[107,&quot;question&quot;]">
    <div class="Qr7Oae">
      <div class="M7eMe">When did you first use our product?</div>
      <input type="date" aria-label="Date" id="q-date">
    </div>
  </div>

  <div role="listitem" data-params="%.@.[108,&quot;question&quot;]">
    <div class="Qr7Oae">
      <div class="M7eMe">Any other comments or suggestions?</div>
      <textarea class="KHxj8b" aria-label="Your answer" id="q-comments"></textarea>
    </div>
  </div>

  <div role="listitem" data-params="%.@.[109,&quot;question&quot;]">
    <div class="Qr7Oae">
      <div class="M7eMe">Upload your receipt (optional)</div>
      <input type="file" id="q-file">
    </div>
  </div>

</div>
</form>
</body></html>`

// NativeForm is a plain HTML form built from fieldsets, labels and native controls.
const NativeForm = `<!DOCTYPE html>
<html><head><title>Registration</title></head>
<body>
<h1>Workshop Registration</h1>
<form id="reg">
  <fieldset class="form-group">
    <legend>Your company name</legend>
    <input type="text" name="company" id="company">
  </fieldset>
  <fieldset class="form-group">
    <legend>Preferred session slot</legend>
    <div><input type="radio" name="slot" id="slot-am" value="morning"><label for="slot-am">Morning session</label></div>
    <div><input type="radio" name="slot" id="slot-pm" value="afternoon"><label for="slot-pm">Afternoon session</label></div>
  </fieldset>
  <fieldset class="form-group">
    <legend>Topics you are interested in</legend>
    <label><input type="checkbox" name="topics" value="go"> Go programming</label>
    <label><input type="checkbox" name="topics" value="cloud"> Cloud infrastructure</label>
    <label><input type="checkbox" name="topics" value="data"> Data engineering</label>
  </fieldset>
  <fieldset class="form-group">
    <legend>Your experience level</legend>
    <select name="level" id="level">
      <option value="">Select one</option>
      <option value="junior">Junior</option>
      <option value="mid">Intermediate</option>
      <option value="senior">Senior</option>
    </select>
  </fieldset>
  <fieldset class="form-group">
    <legend>Personal website URL</legend>
    <input type="url" name="site" id="site">
  </fieldset>
  <fieldset class="form-group">
    <legend>How many years of experience?</legend>
    <input type="number" name="years" id="years">
  </fieldset>
  <fieldset class="form-group">
    <legend>Preferred start time</legend>
    <input type="time" name="start" id="start">
  </fieldset>
</form>
</body></html>`
